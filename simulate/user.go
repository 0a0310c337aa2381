package simulate

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// User is the registration record fed into the pipeline.
type User struct {
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Age              int       `json:"age"`
	Region           string    `json:"region"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// UserSource produces the user for each submitted run.
type UserSource interface {
	Next() User
}

var (
	userRegions = []string{"US", "EU", "Asia"}
	userNames   = []string{"Alex", "Jamie", "Taylor", "Sam", "Jordan", "Morgan"}
)

// RandomUsers draws users from a seeded generator: roughly 30% are under 18 and
// 20% carry an invalid email address.
type RandomUsers struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewRandomUsers returns a generator seeded with seed. now stamps the registration date
// and defaults to time.Now.
func NewRandomUsers(seed uint64, now func() time.Time) *RandomUsers {
	if now == nil {
		now = time.Now
	}
	return &RandomUsers{rng: rand.New(rand.NewPCG(seed, seed)), now: now}
}

// Next draws a user.
func (r *RandomUsers) Next() User {
	r.mu.Lock()
	defer r.mu.Unlock()

	var age int
	if r.rng.Float64() < 0.3 {
		age = r.rng.IntN(10) + 10
	} else {
		age = r.rng.IntN(25) + 18
	}

	email := "invalid-email"
	if r.rng.Float64() >= 0.2 {
		email = strings.ToLower(r.pick(userNames)) + "@example.com"
	}

	return User{
		Name:             r.pick(userNames),
		Email:            email,
		Age:              age,
		Region:           r.pick(userRegions),
		RegistrationDate: r.now().UTC(),
	}
}

func (r *RandomUsers) pick(from []string) string {
	return from[r.rng.IntN(len(from))]
}

// FixedUsers replays a list of users in order and wraps around.
type FixedUsers struct {
	mu    sync.Mutex
	users []User
	next  int
}

// NewFixedUsers returns a source replaying users.
func NewFixedUsers(users ...User) *FixedUsers {
	return &FixedUsers{users: users}
}

// Next returns the next fixture. An empty source yields the zero User.
func (f *FixedUsers) Next() User {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.users) == 0 {
		return User{}
	}
	u := f.users[f.next%len(f.users)]
	f.next++
	return u
}
