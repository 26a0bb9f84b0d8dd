package mindmap

import (
	"context"
	"fmt"
	"sync"

	"themetree/internal/llm"
	"themetree/internal/logging"
)

// Generator orchestrates mind-map generation: it composes prompts,
// invokes the request engine and feeds the reply through the
// normalize/validate/build pipeline.
//
// Two clients can be configured: the base client for one-shot
// generation and a (typically stronger) reasoning client for
// refinement. When only one is given it serves both roles.
type Generator struct {
	base      llm.Client
	reasoning llm.Client
	params    llm.Params
}

// Request describes one generation call.
type Request struct {
	// Theme is the main theme to analyze.
	Theme string
	// Focus is the aspect guiding sub-theme generation; may be empty.
	Focus string
	// MapType selects the prompt template; empty means "theme".
	MapType string
	// Instructions overrides the template's default instructions.
	Instructions string
}

// Interval names one step of a dynamic generation chain. Start and End
// are carried for callers that key intervals by date range; only Name
// participates in prompting and persistence.
type Interval struct {
	Name  string
	Start string
	End   string
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithReasoningClient sets a separate client for refinement calls.
func WithReasoningClient(c llm.Client) GeneratorOption {
	return func(g *Generator) { g.reasoning = c }
}

// WithParams sets the call parameters forwarded to every request.
func WithParams(p llm.Params) GeneratorOption {
	return func(g *Generator) { g.params = p }
}

// NewGenerator creates a Generator around the base client.
func NewGenerator(base llm.Client, opts ...GeneratorOption) *Generator {
	g := &Generator{base: base, reasoning: base}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// composeBaseMessages builds the system+user prompt pair for a request.
func composeBaseMessages(req Request) ([]llm.Message, error) {
	tpl, err := templateFor(req.MapType)
	if err != nil {
		return nil, err
	}

	instructions := req.Instructions
	if instructions == "" {
		instructions = renderTemplate(tpl.DefaultInstructions, req.Theme, req.Focus)
	}

	system := instructions + " " + req.Focus + "\n" + tpl.EnforceStructure
	user := renderTemplate(tpl.UserPromptMessage, req.Theme, req.Focus)
	return llm.SystemUser(system, user), nil
}

// GenerateOneShot produces a complete tree in a single request/parse
// cycle. Any transport, parse, schema or build failure propagates to
// the caller unchanged: one-shot generation fails loud.
func (g *Generator) GenerateOneShot(ctx context.Context, req Request) (*MindMap, Result, error) {
	messages, err := composeBaseMessages(req)
	if err != nil {
		return nil, Result{}, err
	}

	logging.Mindmap("one-shot generation: theme=%q focus=%q", req.Theme, req.Focus)

	text, err := g.base.Chat(ctx, messages, g.params)
	if err != nil {
		return nil, Result{}, err
	}

	tree, err := Decode(text)
	if err != nil {
		return nil, Result{}, err
	}

	treeJSON, err := tree.ToJSON()
	if err != nil {
		return nil, Result{}, err
	}

	return tree, Result{
		MindmapText: text,
		MindmapJSON: treeJSON,
		Rows:        tree.Table(false),
	}, nil
}

// GenerateRefined asks the reasoning client to enhance an existing
// serialized tree under the same schema. Unlike one-shot, parse and
// transport failures are caught here: the returned tree is nil and the
// result carries the error string, and the error bundle is persisted
// exactly like a success. Refinement runs unattended in batches where
// one bad response must not abort the job. The error return covers
// persistence only.
func (g *Generator) GenerateRefined(ctx context.Context, req Request, initialMindmap, outputDir, filename string) (*MindMap, Result, error) {
	tpl, err := templateFor(req.MapType)
	if err != nil {
		return nil, Result{}, err
	}

	instructions := req.Instructions
	if instructions == "" {
		instructions = renderTemplate(tpl.DefaultInstructions, req.Theme, req.Focus)
	}

	refinePrompt := fmt.Sprintf(
		"%s %s: %s %s.\n"+
			"Based on these instructions, enhance the given mindmap with the information below. "+
			"Only return the mindmap without extra text.\n"+
			"IMPORTANT: Only create additional branches if the new information suggests that new branches would be relevant.\n"+
			"%s.",
		instructions, tpl.Qualifier, req.Theme, req.Focus, tpl.EnforceStructure,
	)

	messages := llm.SystemUser(refinePrompt, initialMindmap)

	logging.Mindmap("refined generation: theme=%q file=%s", req.Theme, filename)

	text, err := g.reasoning.Chat(ctx, messages, g.params)
	if err == nil {
		var tree *MindMap
		if tree, err = Decode(text); err == nil {
			treeJSON, jsonErr := tree.ToJSON()
			if jsonErr != nil {
				return nil, Result{}, jsonErr
			}
			res := Result{
				MindmapText: text,
				MindmapJSON: treeJSON,
				Rows:        tree.Table(false),
			}
			if err := SaveResult(res, outputDir, filename); err != nil {
				return nil, Result{}, err
			}
			return tree, res, nil
		}
	}

	logging.MindmapError("failed to generate refined mindmap: %v", err)
	res := Result{
		MindmapText: text,
		MindmapJSON: "",
		Rows:        nil,
		Error:       err.Error(),
	}
	if saveErr := SaveResult(res, outputDir, filename); saveErr != nil {
		return nil, Result{}, saveErr
	}
	return nil, res, nil
}

// GenerateOrLoadRefined is the idempotence/resume wrapper for long
// batch jobs: when the indexed result file already exists it is loaded
// and returned verbatim, with no re-validation and no request.
func (g *Generator) GenerateOrLoadRefined(ctx context.Context, req Request, initialMindmap, outputDir, filename string, index int) (Result, error) {
	indexed := fmt.Sprintf("%s_%d.json", filename, index)

	if resultExists(outputDir, indexed) {
		res, err := LoadResult(outputDir, indexed)
		if err != nil {
			return Result{}, err
		}
		logging.Store("loaded existing result %s", indexed)
		return res, nil
	}

	_, res, err := g.GenerateRefined(ctx, req, initialMindmap, outputDir, indexed)
	if err != nil {
		logging.MindmapError("error generating refined mindmap %d: %v", index, err)
		return Result{Error: err.Error()}, nil
	}
	return res, nil
}

// BootstrapRefined generates n refined maps concurrently on a worker
// pool of width workers, each persisted with an index suffix via
// GenerateOrLoadRefined so an interrupted run resumes where it
// stopped. Results come back in index order; a failed index carries an
// error record instead of aborting the batch.
func (g *Generator) BootstrapRefined(ctx context.Context, req Request, initialMindmap, outputDir, filename string, n, workers int) []Result {
	if workers <= 0 {
		workers = 10
	}
	if workers > n {
		workers = n
	}

	logging.Mindmap("bootstrapping %d refined mindmaps with %d workers", n, workers)

	results := make([]Result, n)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := g.GenerateOrLoadRefined(ctx, req, initialMindmap, outputDir, filename, i)
				if err != nil {
					res = Result{Error: err.Error()}
				}
				results[i] = res
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// GenerateDynamic evolves a map over named intervals sequentially:
// each interval refines the previous interval's output. With no
// initial tree a one-shot pass seeds the chain under the key
// "base_mindmap". Returned maps are keyed by interval name; a failed
// interval stores a nil tree and its error record, and the chain
// continues from the last good serialization.
func (g *Generator) GenerateDynamic(ctx context.Context, req Request, initialMindmap string, intervals []Interval, outputDir string) (map[string]*MindMap, map[string]Result, error) {
	results := make(map[string]Result)
	trees := make(map[string]*MindMap)

	prev := initialMindmap
	if prev == "" {
		tree, res, err := g.GenerateOneShot(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		trees["base_mindmap"] = tree
		results["base_mindmap"] = res
		prev = res.MindmapJSON
	}

	for _, interval := range intervals {
		tree, res, err := g.GenerateRefined(ctx, req, prev, outputDir, interval.Name+".json")
		if err != nil {
			return trees, results, err
		}
		trees[interval.Name] = tree
		results[interval.Name] = res
		if res.MindmapJSON != "" {
			prev = res.MindmapJSON
		}
	}

	return trees, results, nil
}

// GenerateThemeTree is the one-call convenience path: a single one-shot
// "theme" generation from a theme and focus.
func GenerateThemeTree(ctx context.Context, client llm.Client, theme, focus string) (*MindMap, error) {
	g := NewGenerator(client)
	tree, _, err := g.GenerateOneShot(ctx, Request{Theme: theme, Focus: focus})
	return tree, err
}
