// Package shell hosts the page controllers the way a single-page app router
// does: it owns a browser-like history and keeps exactly the page for the
// current location mounted.
package shell

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-portal/internal/core/guard"
	"github.com/99minutos/auth-portal/internal/core/page"
	"github.com/99minutos/auth-portal/internal/core/ports"
)

// maxHops bounds guard redirect chains within one settle pass.
const maxHops = 8

// Entry is one history entry.
type Entry struct {
	Path  string
	State *ports.RedirectState
}

// Pages are the controllers the shell mounts by location.
type Pages struct {
	Login     *page.LoginController
	Dashboard *page.DashboardController
	Admin     *page.AdminController
}

// Shell implements ports.Navigator. Visit is a user navigation (push);
// controllers navigate through Navigate.
type Shell struct {
	base  context.Context
	pages Pages
	log   zerolog.Logger

	mu       sync.Mutex
	history  []Entry
	mounted  string
	settling bool
	idle     chan struct{}
	products *page.Task
}

// New returns a shell whose background work (product loads) lives as long as
// ctx. Bind must be called before the first Visit.
func New(ctx context.Context, log zerolog.Logger) *Shell {
	idle := make(chan struct{})
	close(idle)
	return &Shell{
		base: ctx,
		log:  log.With().Str("component", "shell").Logger(),
		idle: idle,
	}
}

// Bind attaches the page controllers. The controllers are built with the
// shell as their navigator, hence the two-step construction.
func (s *Shell) Bind(p Pages) {
	s.mu.Lock()
	s.pages = p
	s.mu.Unlock()
}

// Navigate satisfies ports.Navigator.
func (s *Shell) Navigate(path string, opts ports.NavigateOptions) {
	s.mu.Lock()
	e := Entry{Path: path, State: opts.State}
	if opts.Replace && len(s.history) > 0 {
		s.history[len(s.history)-1] = e
	} else {
		s.history = append(s.history, e)
	}
	s.log.Debug().Str("path", path).Bool("replace", opts.Replace).Msg("navigate")
	s.scheduleLocked(false)
}

// Visit pushes path unless it is already the current location, then waits
// until the mounted page matches the resulting location.
func (s *Shell) Visit(path string) Entry {
	s.mu.Lock()
	if n := len(s.history); n == 0 || s.history[n-1].Path != path {
		s.history = append(s.history, Entry{Path: path})
	}
	s.scheduleLocked(true)
	return s.Location()
}

// Location returns the current history entry.
func (s *Shell) Location() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// History returns a copy of all entries, oldest first.
func (s *Shell) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.history...)
}

// Products returns the product load started by the current dashboard mount,
// or nil when the dashboard is not mounted.
func (s *Shell) Products() *page.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted != guard.PathDashboard {
		return nil
	}
	return s.products
}

// Logout logs out through whichever protected page is mounted.
func (s *Shell) Logout() {
	s.mu.Lock()
	mounted, pages := s.mounted, s.pages
	s.mu.Unlock()

	switch mounted {
	case guard.PathDashboard:
		pages.Dashboard.Logout()
	case guard.PathAdmin:
		pages.Admin.Logout()
	}
}

func (s *Shell) currentLocked() Entry {
	if len(s.history) == 0 {
		return Entry{}
	}
	return s.history[len(s.history)-1]
}

// scheduleLocked is called with s.mu held and releases it. It either runs a
// settle pass on this goroutine or leaves the change to the pass already in
// progress, optionally waiting for that pass to finish.
func (s *Shell) scheduleLocked(wait bool) {
	if s.settling {
		idle := s.idle
		s.mu.Unlock()
		if wait {
			<-idle
		}
		return
	}
	s.settling = true
	s.idle = make(chan struct{})
	s.mu.Unlock()
	s.settle()
}

// settle swaps mounted pages until the mounted page matches the location.
// Controllers may navigate while being mounted; the loop picks that up.
func (s *Shell) settle() {
	for hop := 0; ; hop++ {
		s.mu.Lock()
		want := s.currentLocked().Path
		if want == s.mounted || hop == maxHops {
			if want != s.mounted {
				s.log.Error().Str("path", want).Msg("redirect loop, giving up")
			}
			s.settling = false
			close(s.idle)
			s.mu.Unlock()
			return
		}
		prev := s.mounted
		s.mounted = want
		s.mu.Unlock()

		s.unmount(prev)
		s.mount(want)
	}
}

func (s *Shell) mount(path string) {
	switch path {
	case guard.PathLogin:
		s.pages.Login.Mount()
	case guard.PathDashboard:
		task := s.pages.Dashboard.Mount(s.base)
		s.mu.Lock()
		s.products = task
		s.mu.Unlock()
	case guard.PathAdmin:
		s.pages.Admin.Mount()
	}
}

func (s *Shell) unmount(path string) {
	switch path {
	case guard.PathLogin:
		s.pages.Login.Unmount()
	case guard.PathDashboard:
		s.pages.Dashboard.Unmount()
		s.mu.Lock()
		task := s.products
		s.products = nil
		s.mu.Unlock()
		if task != nil {
			task.Cancel()
		}
	case guard.PathAdmin:
		s.pages.Admin.Unmount()
	}
}
