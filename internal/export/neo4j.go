package export

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/shjno191/graviti/internal/flowgraph"
)

// Neo4jLoader loads analyzed call graphs into a Neo4j database using batch
// UNWIND queries.
type Neo4jLoader struct {
	driver neo4j.DriverWithContext
	ctx    context.Context
}

// NewNeo4jLoader connects to Neo4j and returns a ready-to-use loader.
func NewNeo4jLoader(ctx context.Context, uri, user, password string) (*Neo4jLoader, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return &Neo4jLoader{driver: driver, ctx: ctx}, nil
}

// Close releases the underlying Neo4j driver resources.
func (l *Neo4jLoader) Close() {
	l.driver.Close(l.ctx)
}

// runCypher runs a single Cypher statement with optional parameters.
func (l *Neo4jLoader) runCypher(cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(l.ctx, l.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// CleanGraph removes previously loaded nodes and relationships for a file.
func (l *Neo4jLoader) CleanGraph(file string) error {
	log.Printf("Cleaning existing graph data for %s...", file)
	queries := []string{
		"MATCH (:JavaMethod {file: $file})-[r:CALLS]->() DELETE r",
		"MATCH (n:JavaMethod {file: $file}) DETACH DELETE n",
	}
	for _, q := range queries {
		if err := l.runCypher(q, map[string]any{"file": file}); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndexes ensures the required Neo4j indexes exist.
func (l *Neo4jLoader) CreateIndexes() error {
	log.Println("Creating indexes...")
	indexes := []string{
		"CREATE INDEX java_method_key IF NOT EXISTS FOR (n:JavaMethod) ON (n.key)",
		"CREATE INDEX java_method_file IF NOT EXISTS FOR (n:JavaMethod) ON (n.file)",
	}
	for _, q := range indexes {
		if err := l.runCypher(q, nil); err != nil {
			return err
		}
	}
	return nil
}

// Load clears and reloads the graph for one analyzed file.
func (l *Neo4jLoader) Load(doc *Document) error {
	if err := l.CleanGraph(doc.File); err != nil {
		return fmt.Errorf("clean graph: %w", err)
	}
	if err := l.LoadMethods(doc.File, doc.Graph); err != nil {
		return fmt.Errorf("load methods: %w", err)
	}
	if err := l.LoadCalls(doc.File, doc.Graph); err != nil {
		return fmt.Errorf("load calls: %w", err)
	}
	return nil
}

// LoadMethods upserts one JavaMethod node per declared method.
func (l *Neo4jLoader) LoadMethods(file string, graph *flowgraph.CallGraph) error {
	batch := methodBatch(file, graph)
	log.Printf("Loading %d methods...", len(batch))
	return l.runCypher(
		`UNWIND $batch AS row
		 MERGE (n:JavaMethod {key: row.key})
		 SET n.name = row.name, n.file = row.file, n.return_type = row.return_type,
		     n.modifiers = row.modifiers, n.start_byte = row.start_byte,
		     n.end_byte = row.end_byte`,
		map[string]any{"batch": batch},
	)
}

// LoadCalls upserts CALLS relationships between JavaMethod nodes, keeping
// the invocation order in a seq property.
func (l *Neo4jLoader) LoadCalls(file string, graph *flowgraph.CallGraph) error {
	batch := callBatch(file, graph)
	log.Printf("Loading %d call edges...", len(batch))
	if len(batch) == 0 {
		return nil
	}
	return l.runCypher(
		`UNWIND $batch AS row
		 MATCH (caller:JavaMethod {key: row.caller}), (callee:JavaMethod {key: row.callee})
		 MERGE (caller)-[r:CALLS {seq: row.seq}]->(callee)`,
		map[string]any{"batch": batch},
	)
}

// methodBatch builds the UNWIND rows for LoadMethods, in name order so the
// same graph always produces the same batch.
func methodBatch(file string, graph *flowgraph.CallGraph) []map[string]any {
	names := make([]string, 0, len(graph.Nodes))
	for name := range graph.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	batch := make([]map[string]any, 0, len(names))
	for _, name := range names {
		node := graph.Nodes[name]
		batch = append(batch, map[string]any{
			"key":         file + "#" + name,
			"name":        name,
			"file":        file,
			"return_type": node.ReturnType,
			"modifiers":   node.Modifiers,
			"start_byte":  node.StartByte,
			"end_byte":    node.EndByte,
		})
	}
	return batch
}

// callBatch builds the UNWIND rows for LoadCalls. Each caller's edges carry
// their invocation index, so duplicate calls stay distinct.
func callBatch(file string, graph *flowgraph.CallGraph) []map[string]any {
	callers := make([]string, 0, len(graph.Calls))
	for name := range graph.Calls {
		callers = append(callers, name)
	}
	sort.Strings(callers)

	var batch []map[string]any
	for _, caller := range callers {
		for seq, callee := range graph.Calls[caller] {
			batch = append(batch, map[string]any{
				"caller": file + "#" + caller,
				"callee": file + "#" + callee,
				"seq":    seq,
			})
		}
	}
	return batch
}
