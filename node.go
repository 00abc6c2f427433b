package cfntheory

import (
	"slices"
	"strings"

	"github.com/theory-cloud/cfntheory/pkg/logger"
	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/tags"
)

// PathSeparator joins construct ids into a path.
const PathSeparator = "/"

// Construct is anything that owns a place in the construct tree.
type Construct interface {
	Node() *Node
}

// Node is a construct's position in the tree. Nodes are created once and
// never removed; children keep creation order.
type Node struct {
	id       string
	scope    *Node
	host     Construct
	children []*Node
	byID     map[string]*Node
	tags     tags.List
	metadata *propbag.Bag
}

func (n *Node) ID() string { return n.id }

// Scope returns the enclosing node, or nil for the app.
func (n *Node) Scope() *Node { return n.scope }

// Host returns the construct that owns n.
func (n *Node) Host() Construct { return n.host }

// Path joins the ids from the app down to n. The app itself has an empty id
// and does not appear.
func (n *Node) Path() string {
	ids := make([]string, 0, 4)
	for _, s := range n.Scopes() {
		if s.id != "" {
			ids = append(ids, s.id)
		}
	}
	return strings.Join(ids, PathSeparator)
}

func (n *Node) Children() []*Node { return slices.Clone(n.children) }

func (n *Node) FindChild(id string) (*Node, bool) {
	c, ok := n.byID[id]
	return c, ok
}

func (n *Node) Root() *Node {
	cur := n
	for cur.scope != nil {
		cur = cur.scope
	}
	return cur
}

// Scopes returns the nodes from the root down to and including n.
func (n *Node) Scopes() []*Node {
	var out []*Node
	for cur := n; cur != nil; cur = cur.scope {
		out = append(out, cur)
	}
	slices.Reverse(out)
	return out
}

// Stack returns the stack enclosing n, or nil when n is not inside one.
func (n *Node) Stack() *Stack {
	for cur := n; cur != nil; cur = cur.scope {
		if s, ok := cur.host.(*Stack); ok {
			return s
		}
	}
	return nil
}

// App returns the app at the root of n's tree.
func (n *Node) App() *App {
	app, _ := n.Root().host.(*App)
	return app
}

// AddMetadata records a metadata entry on n. Entries on a CfnResource's node
// are emitted in the resource's Metadata section.
func (n *Node) AddMetadata(key string, value any) {
	if n.metadata == nil {
		n.metadata = propbag.New()
	}
	n.metadata.Set(key, value)
}

// Metadata returns a copy of the metadata recorded on n.
func (n *Node) Metadata() *propbag.Bag {
	return n.metadata.Clone()
}

// walk visits n and its descendants in creation order.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}

// newNode checks id against scope without attaching anything. Constructors
// call attach as their last step, once every other check has passed.
func newNode(scope Construct, id string) (*Node, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if scope == nil || scope.Node() == nil {
		return nil, newError(ErrorCodeInvalidScope, errorMessageNilScope, nil)
	}
	parent := scope.Node()
	if _, exists := parent.byID[id]; exists {
		return nil, newError(ErrorCodeDuplicateID, "there is already a construct with id "+quote(id)+" in "+describe(parent), nil)
	}
	return &Node{id: id, scope: parent}, nil
}

func (n *Node) attach(host Construct) error {
	parent := n.scope
	if _, exists := parent.byID[n.id]; exists {
		return newError(ErrorCodeDuplicateID, "there is already a construct with id "+quote(n.id)+" in "+describe(parent), nil)
	}
	n.host = host
	if parent.byID == nil {
		parent.byID = make(map[string]*Node)
	}
	parent.byID[n.id] = n
	parent.children = append(parent.children, n)

	logger.Logger().WithPath(n.Path()).Debug("construct registered")
	return nil
}

func validateID(id string) error {
	if id == "" {
		return newError(ErrorCodeInvalidID, errorMessageEmptyID, nil)
	}
	if strings.Contains(id, PathSeparator) {
		return newError(ErrorCodeInvalidID, errorMessageSlashInID+": "+quote(id), nil)
	}
	return nil
}

func describe(n *Node) string {
	if p := n.Path(); p != "" {
		return quote(p)
	}
	return "the app"
}

func quote(s string) string { return `"` + s + `"` }

// Group is a plain construct used to nest other constructs under a common
// path prefix.
type Group struct {
	node *Node
}

// NewConstruct creates a grouping construct under scope.
func NewConstruct(scope Construct, id string) (*Group, error) {
	n, err := newNode(scope, id)
	if err != nil {
		return nil, err
	}
	g := &Group{node: n}
	if err := n.attach(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Group) Node() *Node { return g.node }
