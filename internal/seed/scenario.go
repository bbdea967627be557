package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"nyx/internal/bootstrap"
	"nyx/internal/models"

	"gopkg.in/yaml.v3"
)

// Scenario is a named social graph loaded from YAML. Owners and viewers are
// referred to by name everywhere else in the file.
type Scenario struct {
	Owners    []ScenarioOwner `yaml:"owners"`
	Viewers   []string        `yaml:"viewers"`
	Items     []ScenarioItem  `yaml:"items"`
	Follows   []ScenarioEdge  `yaml:"follows"`
	Blocks    []ScenarioBlock `yaml:"blocks"`
	Favorites []ScenarioEdge  `yaml:"favorites"`
}

type ScenarioOwner struct {
	Name       string            `yaml:"name"`
	Visibility models.Visibility `yaml:"visibility"`
}

type ScenarioItem struct {
	Owner      string            `yaml:"owner"`
	Body       string            `yaml:"body"`
	Visibility models.Visibility `yaml:"visibility"`
	Tags       []string          `yaml:"tags"`
}

// ScenarioEdge is a follow or favorite from Viewer to Owner. Status only
// applies to follows and defaults to approved.
type ScenarioEdge struct {
	Owner  string              `yaml:"owner"`
	Viewer string              `yaml:"viewer"`
	Status models.FollowStatus `yaml:"status"`
}

type ScenarioBlock struct {
	Blocker string `yaml:"blocker"`
	Blocked string `yaml:"blocked"`
}

// Handles maps scenario names to the account ids created for them.
type Handles map[string]string

// LoadScenario decodes and validates a scenario.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenarioFile reads a scenario from path.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadScenario(f)
}

func (s *Scenario) roles() (map[string]models.Role, error) {
	roles := make(map[string]models.Role, len(s.Owners)+len(s.Viewers))
	add := func(name string, role models.Role) error {
		if name == "" {
			return fmt.Errorf("scenario: empty %s name", role)
		}
		if _, dup := roles[name]; dup {
			return fmt.Errorf("scenario: duplicate name %q", name)
		}
		roles[name] = role
		return nil
	}
	for _, o := range s.Owners {
		if err := add(o.Name, models.RoleOwner); err != nil {
			return nil, err
		}
		if o.Visibility != "" && !o.Visibility.Valid() {
			return nil, fmt.Errorf("scenario: owner %q has visibility %q", o.Name, o.Visibility)
		}
	}
	for _, v := range s.Viewers {
		if err := add(v, models.RoleViewer); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

// Validate checks that every reference names a declared account of the right role.
func (s *Scenario) Validate() error {
	roles, err := s.roles()
	if err != nil {
		return err
	}
	expect := func(section, name string, role models.Role) error {
		if got, ok := roles[name]; !ok {
			return fmt.Errorf("scenario: %s references unknown name %q", section, name)
		} else if role != "" && got != role {
			return fmt.Errorf("scenario: %s expects %q to be a %s", section, name, role)
		}
		return nil
	}

	for _, it := range s.Items {
		if err := expect("items", it.Owner, models.RoleOwner); err != nil {
			return err
		}
	}
	for _, f := range s.Follows {
		if err := expect("follows", f.Owner, models.RoleOwner); err != nil {
			return err
		}
		if err := expect("follows", f.Viewer, models.RoleViewer); err != nil {
			return err
		}
		if f.Status != "" && !f.Status.Valid() {
			return fmt.Errorf("scenario: follow %s -> %s has status %q", f.Viewer, f.Owner, f.Status)
		}
	}
	for _, b := range s.Blocks {
		if err := expect("blocks", b.Blocker, ""); err != nil {
			return err
		}
		if err := expect("blocks", b.Blocked, ""); err != nil {
			return err
		}
	}
	for _, f := range s.Favorites {
		if err := expect("favorites", f.Owner, models.RoleOwner); err != nil {
			return err
		}
		if err := expect("favorites", f.Viewer, models.RoleViewer); err != nil {
			return err
		}
	}
	return nil
}

// Apply creates the scenario through the engine's services.
func (s *Scenario) Apply(ctx context.Context, e *bootstrap.Engine) (Handles, error) {
	roles, err := s.roles()
	if err != nil {
		return nil, err
	}
	handles := make(Handles, len(roles))

	for _, o := range s.Owners {
		p, err := e.Profile.RegisterOwner(ctx, o.Name, nil, o.Visibility)
		if err != nil {
			return nil, fmt.Errorf("owner %q: %w", o.Name, err)
		}
		handles[o.Name] = p.ID
	}
	for _, name := range s.Viewers {
		p, err := e.Profile.RegisterViewer(ctx, name, nil)
		if err != nil {
			return nil, fmt.Errorf("viewer %q: %w", name, err)
		}
		handles[name] = p.ID
	}

	for _, it := range s.Items {
		body := it.Body
		if body == "" {
			body = "untitled"
		}
		if _, err := e.Items.CreateItem(ctx, handles[it.Owner], body, it.Visibility, it.Tags); err != nil {
			return nil, fmt.Errorf("item of %q: %w", it.Owner, err)
		}
	}
	for _, f := range s.Follows {
		owner, viewer := handles[f.Owner], handles[f.Viewer]
		if f.Status == models.FollowStatusPending {
			_, err = e.Follow.RequestFollow(ctx, owner, viewer)
		} else {
			_, err = e.Follow.Follow(ctx, owner, viewer)
		}
		if err != nil {
			return nil, fmt.Errorf("follow %s -> %s: %w", f.Viewer, f.Owner, err)
		}
	}
	for _, b := range s.Blocks {
		blocker := models.Actor{ID: handles[b.Blocker], Role: roles[b.Blocker]}
		blocked := models.Actor{ID: handles[b.Blocked], Role: roles[b.Blocked]}
		if _, err := e.Block.Block(ctx, blocker, blocked); err != nil {
			return nil, fmt.Errorf("block %s -> %s: %w", b.Blocker, b.Blocked, err)
		}
	}
	for _, f := range s.Favorites {
		if _, err := e.Favorite.Favorite(ctx, handles[f.Owner], handles[f.Viewer]); err != nil {
			return nil, fmt.Errorf("favorite %s -> %s: %w", f.Viewer, f.Owner, err)
		}
	}
	return handles, nil
}
