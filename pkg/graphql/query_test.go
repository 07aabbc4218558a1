package graphql

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dd0wney/goblin/pkg/goblin"
	"github.com/dd0wney/goblin/pkg/identity"
	"github.com/dd0wney/goblin/pkg/logging"
)

func TestNewExecutor_InvalidDepth(t *testing.T) {
	if _, err := NewExecutor(goblin.NewModel(), WithMaxDepth(0)); err == nil {
		t.Error("Expected error for zero max depth")
	}
}

func TestExecutor_Execute(t *testing.T) {
	m := setupModel(t)
	var buf bytes.Buffer
	executor, err := NewExecutor(m,
		WithMaxDepth(3),
		WithLogger(logging.NewJSONLogger(&buf, logging.DebugLevel)),
	)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	result := executor.Execute(context.Background(), `{ hierarchy(name: "Colour") { concepts { name } } }`, nil)
	if result.HasErrors() {
		t.Fatalf("Query execution failed: %v", result.Errors)
	}
	h := result.Data.(map[string]any)["hierarchy"].(map[string]any)
	if got := strings.Join(namesOf(h["concepts"]), ","); got != "Colour,Red,Blue" {
		t.Errorf("Expected pre-order concepts, got %s", got)
	}

	result = executor.Execute(context.Background(), `{ hierarchies { root { children { name } } } }`, nil)
	if !result.HasErrors() || !strings.Contains(result.Errors[0].Message, "depth") {
		t.Errorf("Expected depth error, got %v", result.Errors)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"component":"graphql"`) || !strings.Contains(logs, "graphql query") {
		t.Errorf("Expected query timing in log, got:\n%s", logs)
	}
	if !strings.Contains(logs, "graphql query failed") {
		t.Errorf("Expected failure to be logged, got:\n%s", logs)
	}
}

func TestExecutor_WithAllocator(t *testing.T) {
	m := goblin.NewModel()
	alloc := identity.NewNamespaceAllocator("urn:fleet")
	rootID, err := alloc.Dynamic("Vehicle", "Vehicles")
	if err != nil {
		t.Fatalf("Dynamic failed: %v", err)
	}
	vehicles, err := m.AddHierarchy(rootID)
	if err != nil {
		t.Fatalf("AddHierarchy failed: %v", err)
	}
	carID, _ := alloc.Dynamic("Car", "Motor car")
	if _, err := vehicles.Root().AddChild(carID); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}

	executor, err := NewExecutor(m, WithResolver(alloc))
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	result := executor.Execute(context.Background(), `{ concept(name: "Car") { uri label parent { label } } }`, nil)
	if result.HasErrors() {
		t.Fatalf("Query execution failed: %v", result.Errors)
	}
	car := result.Data.(map[string]any)["concept"].(map[string]any)
	if car["uri"] != "urn:fleet#Car" || car["label"] != "Motor car" {
		t.Errorf("Unexpected concept %v", car)
	}
	if car["parent"].(map[string]any)["label"] != "Vehicles" {
		t.Errorf("Unexpected parent %v", car["parent"])
	}
}

// TestExecutor_ConcurrentEdits runs queries while another goroutine edits
// the model.
func TestExecutor_ConcurrentEdits(t *testing.T) {
	m := setupModel(t)
	executor, err := NewExecutor(m)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	truck, err := m.Concept(id("Truck"))
	if err != nil {
		t.Fatalf("Concept failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := truck.AddChild(id(fmt.Sprintf("T%d", i))); err != nil {
				t.Errorf("AddChild failed: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		result := executor.Execute(context.Background(), `{ hierarchies { conceptCount concepts { name } } }`, nil)
		if result.HasErrors() {
			t.Fatalf("Query execution failed: %v", result.Errors)
		}
		vehicles := items(result.Data.(map[string]any)["hierarchies"])[0].(map[string]any)
		if vehicles["conceptCount"] != len(items(vehicles["concepts"])) {
			t.Fatalf("Count %v disagrees with %d listed concepts", vehicles["conceptCount"], len(items(vehicles["concepts"])))
		}
	}
	wg.Wait()
}
