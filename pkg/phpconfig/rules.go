package phpconfig

import (
	"sort"
	"sync"

	"github.com/thesabbir/phpmanager/pkg/ini"
)

// Rule checks one aspect of the PHP configuration
type Rule interface {
	Index() IssueIndex

	// Check returns nil when the configuration is compliant
	Check(r *Reconciler, doc *ini.Document) (*ConfigIssue, error)
}

// HostRule is remediated by changing the host configuration. ApplyHost
// only mutates the live host objects; the caller commits.
type HostRule interface {
	Rule
	ApplyHost(r *Reconciler) (bool, error)
}

// IniRule is remediated by a setting in the ini file
type IniRule interface {
	Rule

	// Recommend returns the setting to write, or nil when compliant
	Recommend(r *Reconciler, doc *ini.Document) *ini.Setting
}

// Registry holds the rule catalog
type Registry struct {
	mu    sync.RWMutex
	rules map[IssueIndex]Rule
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[IssueIndex]Rule),
	}
}

// Register adds a rule, replacing any rule with the same index
func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Index()] = rule
}

// Get retrieves a rule by index
func (r *Registry) Get(index IssueIndex) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[index]
	return rule, ok
}

// List returns all rules in index order
func (r *Registry) List() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Index() < rules[j].Index()
	})
	return rules
}

// DefaultRegistry creates a registry with the full rule catalog
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	registry.Register(defaultDocumentRule{})
	registry.Register(resourceTypeRule{})
	registry.Register(maxRequestsRule{})
	registry.Register(phprcRule{})
	registry.Register(monitorChangesRule{})

	for _, rule := range iniRules() {
		registry.Register(rule)
	}

	return registry
}
