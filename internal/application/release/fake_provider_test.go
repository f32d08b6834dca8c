package release

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/relicta-tech/grm/internal/domain/sourcecontrol"
)

// fakeProvider is an in-memory sourcecontrol.Provider. Every mutating call
// is recorded in calls.
type fakeProvider struct {
	mu       sync.Mutex
	current  string
	branches map[string]bool
	tags     []string
	remote   bool
	dirty    bool
	detached bool
	calls    []string
	// errs fails the named method ("Pull", "Push", ...) with the given error.
	errs map[string]error
}

var _ sourcecontrol.Provider = (*fakeProvider)(nil)

func newFakeProvider(current string, branches ...string) *fakeProvider {
	p := &fakeProvider{
		current:  current,
		branches: map[string]bool{current: true},
		errs:     map[string]error{},
	}
	for _, b := range branches {
		p.branches[b] = true
	}
	return p
}

func (p *fakeProvider) record(format string, args ...any) error {
	call := fmt.Sprintf(format, args...)
	p.calls = append(p.calls, call)
	name, _, _ := strings.Cut(call, " ")
	return p.errs[name]
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

func (p *fakeProvider) CurrentBranch(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detached {
		return "", sourcecontrol.ErrDetachedHead
	}
	return p.current, nil
}

func (p *fakeProvider) BranchExists(_ context.Context, name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.branches[name], nil
}

func (p *fakeProvider) CreateBranch(_ context.Context, name string, checkout bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("CreateBranch %s", name); err != nil {
		return err
	}
	if p.branches[name] {
		return sourcecontrol.ErrBranchExists
	}
	p.branches[name] = true
	if checkout {
		p.current = name
	}
	return nil
}

func (p *fakeProvider) Checkout(_ context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("Checkout %s", name); err != nil {
		return err
	}
	if !p.branches[name] {
		return sourcecontrol.ErrBranchNotFound
	}
	p.current = name
	return nil
}

func (p *fakeProvider) Merge(_ context.Context, branch, message string, noFF bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("Merge %s into %s (%s, noFF=%t)", branch, p.current, message, noFF)
}

func (p *fakeProvider) DeleteBranch(_ context.Context, name string, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("DeleteBranch %s", name); err != nil {
		return err
	}
	if name == p.current {
		return fmt.Errorf("cannot delete the current branch")
	}
	delete(p.branches, name)
	return nil
}

func (p *fakeProvider) Tags(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.tags), p.errs["Tags"]
}

func (p *fakeProvider) CreateTag(_ context.Context, name, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("CreateTag %s %q", name, message); err != nil {
		return err
	}
	p.tags = append(p.tags, name)
	return nil
}

func (p *fakeProvider) IsClean(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.dirty, nil
}

func (p *fakeProvider) Commit(_ context.Context, message string, files ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("Commit %s %v", message, files)
}

func (p *fakeProvider) HasRemote(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remote, nil
}

func (p *fakeProvider) Push(_ context.Context, remote, branch string, setUpstream bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("Push %s %s upstream=%t", remote, branch, setUpstream)
}

func (p *fakeProvider) PushTags(_ context.Context, remote string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("PushTags %s", remote)
}

func (p *fakeProvider) Pull(_ context.Context, remote, branch string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("Pull %s %s", remote, branch)
}

func (p *fakeProvider) DeleteRemoteBranch(_ context.Context, remote, branch string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("DeleteRemoteBranch %s %s", remote, branch)
}
