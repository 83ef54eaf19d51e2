// Package catalog loads exercise catalog files into a workout store.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// namespace derives stable IDs for entries that carry none, so re-importing
// a file updates rows instead of duplicating them.
var namespace = uuid.MustParse("3d0f4b8e-2c55-4a57-9b1e-6f0c2d8a7e11")

var (
	muscleGroups = []string{"chest", "back", "shoulders", "arms", "legs", "core", "cardio"}
	equipment    = []string{"barbell", "dumbbell", "machine", "cable", "bodyweight", "kettlebell", "other"}
	difficulties = []string{"beginner", "intermediate", "advanced"}
)

// entry is one exercise as written in a catalog file. JSON files parse too,
// since JSON is valid YAML.
type entry struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	MuscleGroups []string `yaml:"muscleGroups"`
	Equipment    string   `yaml:"equipment"`
	Difficulty   string   `yaml:"difficulty"`
	VideoURL     string   `yaml:"videoUrl"`
	GifURL       string   `yaml:"gifUrl"`
	ThumbnailURL string   `yaml:"thumbnailUrl"`
}

// Writer persists catalog records. Both storage backends implement it.
type Writer interface {
	PutExercise(ctx context.Context, e workout.Exercise) error
}

// Stats tracks import progress.
type Stats struct {
	Loaded        int
	Imported      int
	WithoutGIF    int
	ByMuscleGroup map[string]int
}

// Parse reads a catalog file and validates every entry. All invalid entries
// are reported together.
func Parse(r io.Reader) ([]workout.Exercise, error) {
	var entries []entry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	var (
		out     = make([]workout.Exercise, 0, len(entries))
		invalid []string
	)
	for i, e := range entries {
		ex, err := e.exercise()
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		out = append(out, ex)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid catalog entries: %s", strings.Join(invalid, "; "))
	}
	return out, nil
}

func (e entry) exercise() (workout.Exercise, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return workout.Exercise{}, fmt.Errorf("missing name")
	}

	id := uuid.NewSHA1(namespace, []byte(strings.ToLower(name)))
	if e.ID != "" {
		parsed, err := uuid.Parse(e.ID)
		if err != nil {
			return workout.Exercise{}, fmt.Errorf("%s: invalid id %q", name, e.ID)
		}
		id = parsed
	}

	for _, mg := range e.MuscleGroups {
		if !slices.Contains(muscleGroups, mg) {
			return workout.Exercise{}, fmt.Errorf("%s: unknown muscle group %q", name, mg)
		}
	}
	equip := e.Equipment
	if equip == "" {
		equip = "bodyweight"
	}
	if !slices.Contains(equipment, equip) {
		return workout.Exercise{}, fmt.Errorf("%s: unknown equipment %q", name, equip)
	}
	diff := e.Difficulty
	if diff == "" {
		diff = "beginner"
	}
	if !slices.Contains(difficulties, diff) {
		return workout.Exercise{}, fmt.Errorf("%s: unknown difficulty %q", name, diff)
	}

	groups := e.MuscleGroups
	if groups == nil {
		groups = []string{}
	}
	return workout.Exercise{
		ID:           id,
		Name:         name,
		Description:  e.Description,
		MuscleGroups: groups,
		Equipment:    equip,
		Difficulty:   diff,
		VideoURL:     e.VideoURL,
		GifURL:       e.GifURL,
		ThumbnailURL: e.ThumbnailURL,
	}, nil
}

// Importer writes parsed catalog files into a store.
type Importer struct {
	w      Writer
	log    *slog.Logger
	dryRun bool
}

// New creates a new Importer. In dry-run mode nothing is written.
func New(w Writer, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{w: w, log: log, dryRun: dryRun}
}

// ImportFile parses the catalog at path and upserts every exercise.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	exercises, err := Parse(f)
	if err != nil {
		return nil, err
	}
	return imp.Import(ctx, exercises)
}

// Import upserts exercises. Catalog imports are never custom exercises.
func (imp *Importer) Import(ctx context.Context, exercises []workout.Exercise) (*Stats, error) {
	stats := &Stats{Loaded: len(exercises), ByMuscleGroup: map[string]int{}}
	for _, ex := range exercises {
		ex.IsCustom = false
		if ex.GifURL == "" {
			stats.WithoutGIF++
			imp.log.Warn("exercise has no GIF URL", "name", ex.Name)
		}
		for _, mg := range ex.MuscleGroups {
			stats.ByMuscleGroup[mg]++
		}
		if imp.dryRun {
			continue
		}
		if err := imp.w.PutExercise(ctx, ex); err != nil {
			return stats, fmt.Errorf("importing %q: %w", ex.Name, err)
		}
		stats.Imported++
	}
	return stats, nil
}

// MuscleGroupSummary renders the per-group counts in a stable order.
func (s *Stats) MuscleGroupSummary() string {
	keys := make([]string, 0, len(s.ByMuscleGroup))
	for k := range s.ByMuscleGroup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, s.ByMuscleGroup[k])
	}
	return strings.Join(parts, " ")
}
