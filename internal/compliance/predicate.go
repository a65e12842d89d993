package compliance

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// Predicate decides whether a transaction signature warrants an alert.
type Predicate interface {
	Suspicious(signature string) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(signature string) bool

func (f PredicateFunc) Suspicious(signature string) bool { return f(signature) }

// DefaultPredicate flags signatures longer than five characters that mention "malicious".
var DefaultPredicate Predicate = PredicateFunc(func(signature string) bool {
	return len(signature) > 5 && strings.Contains(strings.ToLower(signature), "malicious")
})

const defaultScriptTimeout = 50 * time.Millisecond

// ScriptPredicate evaluates a JavaScript expression with `signature` bound to the
// candidate. A truthy result flags it. Evaluation errors and timeouts count as not
// suspicious.
type ScriptPredicate struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	program *goja.Program
	timeout time.Duration
	onError func(error)
}

// NewScriptPredicate compiles source once. A zero timeout uses 50ms.
func NewScriptPredicate(source string, timeout time.Duration, onError func(error)) (*ScriptPredicate, error) {
	program, err := goja.Compile("suspicion-rule", source, true)
	if err != nil {
		return nil, fmt.Errorf("compile suspicion rule: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &ScriptPredicate{vm: goja.New(), program: program, timeout: timeout, onError: onError}, nil
}

func (p *ScriptPredicate) Suspicious(signature string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.vm.ClearInterrupt()
	if err := p.vm.Set("signature", signature); err != nil {
		p.onError(err)
		return false
	}

	fired := make(chan struct{})
	timer := time.AfterFunc(p.timeout, func() {
		p.vm.Interrupt("suspicion rule timed out")
		close(fired)
	})
	defer func() {
		// A timer that already started must finish interrupting before the
		// flag is cleared, or it would abort the next evaluation.
		if !timer.Stop() {
			<-fired
		}
		p.vm.ClearInterrupt()
	}()

	result, err := p.vm.RunProgram(p.program)
	if err != nil {
		p.onError(fmt.Errorf("evaluate suspicion rule: %w", err))
		return false
	}
	return result != nil && result.ToBoolean()
}
