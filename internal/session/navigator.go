package session

import "sync"

// PathNavigator is a Navigator that records the tab's current path and calls
// OnNavigate, if set, after every move.
type PathNavigator struct {
	mu         sync.Mutex
	path       string
	OnNavigate func(path string)
}

// NewPathNavigator creates a PathNavigator positioned at path.
func NewPathNavigator(path string) *PathNavigator {
	return &PathNavigator{path: path}
}

// CurrentPath implements Navigator.
func (n *PathNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

// Navigate implements Navigator.
func (n *PathNavigator) Navigate(path string) {
	n.mu.Lock()
	n.path = path
	fn := n.OnNavigate
	n.mu.Unlock()
	if fn != nil {
		fn(path)
	}
}
