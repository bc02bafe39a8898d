package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/taskcal/pkg/planner"
)

const plansBucket = "plans"

// ErrPlanNotFound is returned when no saved plan has the requested id.
var ErrPlanNotFound = errors.New("store: plan not found")

// Plan is a saved set of overrides, usually the output of a schedule
// transform, that can be replayed with `plan --plan`.
type Plan struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Transform string            `json:"transform,omitempty"`
	Payload   string            `json:"payload,omitempty"`
	Created   time.Time         `json:"created"`
	Overrides planner.Overrides `json:"overrides"`
}

// Plans persists override plans.
type Plans interface {
	List(ctx context.Context) []*Plan
	Get(id string) (*Plan, error)
	Save(p *Plan) error
	Delete(id string) error
}

// LoadPlans creates a Plans store backed by diskv under cfg's base path.
func LoadPlans(cfg Config) (Plans, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	return &plans{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}, nil
}

type plans struct {
	d *diskv.Diskv
}

func (s *plans) read(key string) (*Plan, error) {
	val, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	p := &Plan{}
	if err := json.Unmarshal(val, p); err != nil {
		return nil, fmt.Errorf("store: decode plan %s: %w", key, err)
	}
	p.ID = keyToPathTransform(key).FileName
	return p, nil
}

func (s *plans) List(ctx context.Context) []*Plan {
	all := make([]*Plan, 0)
	for key := range s.d.KeysPrefix(plansBucket+"-", ctx.Done()) {
		p, err := s.read(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		all = append(all, p)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Created.Equal(all[j].Created) {
			return all[i].ID < all[j].ID
		}
		return all[i].Created.Before(all[j].Created)
	})
	return all
}

func (s *plans) Get(id string) (*Plan, error) {
	if !validID(id) {
		return nil, ErrPlanNotFound
	}
	return s.read(toKey(id))
}

// Save writes p, assigning an id and creation time when missing.
func (s *plans) Save(p *Plan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if !validID(p.ID) {
		return fmt.Errorf("store: invalid plan id %q", p.ID)
	}
	if p.Created.IsZero() {
		p.Created = time.Now().UTC()
	}
	if p.Overrides == nil {
		p.Overrides = planner.Overrides{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.d.Write(toKey(p.ID), data)
}

func (s *plans) Delete(id string) error {
	if !validID(id) || !s.d.Has(toKey(id)) {
		return ErrPlanNotFound
	}
	return s.d.Erase(toKey(id))
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\. `)
}

func keyToPathTransform(s string) *diskv.PathKey {
	bucket, name, _ := strings.Cut(s, "-")
	return &diskv.PathKey{
		Path:     []string{bucket},
		FileName: name,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toKey makes `plans-id`
func toKey(id string) string {
	return fmt.Sprintf("%s-%s", plansBucket, id)
}
