package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/meikuraledutech/flow"
	"github.com/meikuraledutech/flow/memory"
	"github.com/meikuraledutech/flow/postgres"
	"github.com/meikuraledutech/flow/simulate"
)

func main() {
	ctx := context.Background()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Postgres when DATABASE_URL is set, otherwise everything stays in memory.
	var store flow.Store = memory.New()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Build a graph through the editor callbacks ───────────────────
	canvas := flow.NewCanvas(flow.Graph{}, logger)

	gateway, _ := canvas.OnDrop("gateway", flow.Position{X: 0, Y: 50})
	kafka, _ := canvas.OnDrop("kafka", flow.Position{X: 100, Y: 50})
	actor, _ := canvas.OnDrop("actor", flow.Position{X: 250.4, Y: 50})

	canvas.OnConnect(gateway.ID, kafka.ID, "", "")
	canvas.OnConnect(kafka.ID, actor.ID, "", "")

	canvas.OnChange(kafka.ID, flow.NodeData{
		Label:    "User events",
		Actions:  []flow.Action{{Label: "topic", Formula: `metadata.kafkaTopics + "-v2"`}},
		Metadata: map[string]any{"kafkaTopics": "users"},
	})
	canvas.Dispatch(flow.Command{Kind: flow.CommandUpdate, NodeID: actor.ID, Payload: &flow.NodeData{
		Label:    "Replier",
		Metadata: map[string]any{"reply": "true"},
	}})

	if problems := flow.CheckFormulas(canvas.Snapshot()); len(problems) > 0 {
		log.Fatalf("formulas: %v", problems)
	}
	node, _ := canvas.Snapshot().Node(kafka.ID)
	values, err := flow.EvalActions(node, nil)
	if err != nil {
		log.Fatalf("eval: %v", err)
	}
	fmt.Println("\naction results:")
	printJSON(values)

	// ── Export ────────────────────────────────────────────────────────
	doc, err := flow.Encode(canvas.Snapshot())
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Println("\nworkflow document:")
	fmt.Println(string(doc))

	// ── Save, clear, load back ───────────────────────────────────────
	if err := store.SaveWorkflow(ctx, "ingest", canvas.Snapshot()); err != nil {
		log.Fatalf("save: %v", err)
	}
	canvas.Clear()

	saved, err := store.GetWorkflow(ctx, "ingest")
	if err != nil {
		log.Fatalf("get: %v", err)
	}
	if saved == nil {
		log.Fatal("workflow not found")
	}
	canvas.Replace(*saved)
	fmt.Printf("\nloaded %d nodes, %d edges\n", len(saved.Nodes), len(saved.Edges))

	// ── Import into a fresh canvas ───────────────────────────────────
	other := flow.NewCanvas(flow.Graph{}, logger)
	if err := other.Import(doc); err != nil {
		log.Fatalf("import: %v", err)
	}
	fmt.Printf("imported start node: %s\n", other.Export().StartNodeID)

	// ── Simulate one registration per branch ─────────────────────────
	board := simulate.NewBoard()
	sim := simulate.New(simulate.Config{Publisher: board, Logger: logger})

	now := time.Now()
	for _, u := range []simulate.User{
		{Name: "Alex", Email: "alex@example.com", Age: 30, Region: "EU", RegistrationDate: now},
		{Name: "Sam", Email: "sam.example.com", Age: 16, Region: "US", RegistrationDate: now},
	} {
		run, err := sim.Execute(ctx, u)
		if err != nil {
			log.Fatalf("simulate: %v", err)
		}
		fmt.Printf("\nrun %s ended in %s\n", run.ID, run.State)
		printJSON(board.Records())
	}

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteWorkflow(ctx, "ingest"); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nworkflow deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
