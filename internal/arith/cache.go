package arith

// ASTKey is the normalized rendering of a parsed expression. two sources that
// differ only in whitespace, redundant parens or letter case share a key.
type ASTKey string

// ASTCache keeps parsed expressions so an unchanged cell is not re-parsed on
// every recompute. identical trees are stored once and shared.
type ASTCache struct {
	limit    int
	sources  map[string]ASTKey  // source text -> normalized key
	astIndex map[ASTKey]ASTNode // normalized key -> parsed AST
}

// NewASTCache creates a cache holding at most limit source strings. a limit
// of zero or less disables caching.
func NewASTCache(limit int) *ASTCache {
	return &ASTCache{
		limit:    limit,
		sources:  make(map[string]ASTKey),
		astIndex: make(map[ASTKey]ASTNode),
	}
}

func normalizeAST(ast ASTNode) ASTKey {
	if ast == nil {
		return ""
	}
	return ASTKey(ast.ToString())
}

// Get returns the cached AST for a source string
func (c *ASTCache) Get(src string) (ASTNode, bool) {
	key, ok := c.sources[src]
	if !ok {
		return nil, false
	}
	ast, ok := c.astIndex[key]
	return ast, ok
}

// Put records the AST parsed from src. when the cache is full it is reset,
// the working set of a grid is small so a cold start is cheap.
func (c *ASTCache) Put(src string, ast ASTNode) ASTNode {
	if c.limit <= 0 {
		return ast
	}
	if _, ok := c.sources[src]; ok {
		shared, _ := c.Get(src)
		return shared
	}
	if len(c.sources) >= c.limit {
		c.Reset()
	}

	key := normalizeAST(ast)
	if existing, ok := c.astIndex[key]; ok {
		ast = existing
	} else {
		c.astIndex[key] = ast
	}
	c.sources[src] = key
	return ast
}

// Len returns the number of distinct trees in the cache
func (c *ASTCache) Len() int {
	return len(c.astIndex)
}

// Reset drops every cached entry
func (c *ASTCache) Reset() {
	clear(c.sources)
	clear(c.astIndex)
}
