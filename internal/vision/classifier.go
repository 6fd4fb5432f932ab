package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/labels"
)

var (
	// ErrEmptyCrop is returned when a track's box covers no pixels of the frame.
	ErrEmptyCrop = errors.New("empty crop")

	// ErrDimensionMismatch is returned when embeddings cannot be compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ClassificationError reports why a track could not be labelled this frame.
type ClassificationError struct {
	TrackID int
	Err     error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify track %d: %v", e.TrackID, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Embedder maps images and phrases into a shared embedding space.
type Embedder interface {
	EmbedImage(ctx context.Context, jpeg []byte) ([]float64, error)
	EmbedText(ctx context.Context, texts []string) ([][]float64, error)
}

// PersonState is one track's labels for the current frame.
type PersonState struct {
	Action labels.Action
	Gender labels.Gender
}

// Classifier labels person crops by nearest phrase in embedding space. The
// phrase embeddings are computed once, on first use. Safe for concurrent use.
type Classifier struct {
	embedder Embedder

	mu      sync.Mutex
	actions [][]float64
	genders [][]float64
}

// NewClassifier creates a Classifier backed by embedder.
func NewClassifier(embedder Embedder) *Classifier {
	return &Classifier{embedder: embedder}
}

// init embeds the catalogs. A failed attempt is retried on the next call.
func (c *Classifier) init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.actions != nil {
		return nil
	}

	actions, err := c.embedder.EmbedText(ctx, labels.ActionPhrases())
	if err != nil {
		return fmt.Errorf("embed action catalog: %w", err)
	}
	genders, err := c.embedder.EmbedText(ctx, labels.GenderPrompts())
	if err != nil {
		return fmt.Errorf("embed gender catalog: %w", err)
	}
	if err := checkCatalog("action", actions, len(labels.Actions())); err != nil {
		return err
	}
	if err := checkCatalog("gender", genders, len(labels.Genders())); err != nil {
		return err
	}
	if len(actions[0]) != len(genders[0]) {
		return fmt.Errorf("%w: action catalog has %d, gender catalog has %d", ErrDimensionMismatch, len(actions[0]), len(genders[0]))
	}
	c.actions = actions
	c.genders = genders
	return nil
}

// Classify returns the action and gender of a non-empty crop.
func (c *Classifier) Classify(ctx context.Context, crop gocv.Mat) (PersonState, error) {
	if crop.Empty() {
		return PersonState{}, ErrEmptyCrop
	}
	if err := c.init(ctx); err != nil {
		return PersonState{}, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, crop)
	if err != nil {
		return PersonState{}, fmt.Errorf("encode crop: %w", err)
	}
	defer buf.Close()

	vec, err := c.embedder.EmbedImage(ctx, buf.GetBytes())
	if err != nil {
		return PersonState{}, err
	}
	if len(vec) != len(c.actions[0]) {
		return PersonState{}, fmt.Errorf("%w: image has %d, catalog has %d", ErrDimensionMismatch, len(vec), len(c.actions[0]))
	}

	return PersonState{
		Action: labels.Action(nearest(vec, c.actions)),
		Gender: labels.Gender(nearest(vec, c.genders)),
	}, nil
}

// ClassifyAction returns only the action label of crop.
func (c *Classifier) ClassifyAction(ctx context.Context, crop gocv.Mat) (labels.Action, error) {
	s, err := c.Classify(ctx, crop)
	return s.Action, err
}

// ClassifyGender returns only the gender label of crop.
func (c *Classifier) ClassifyGender(ctx context.Context, crop gocv.Mat) (labels.Gender, error) {
	s, err := c.Classify(ctx, crop)
	return s.Gender, err
}

// checkCatalog requires one vector per phrase, all of the same non-zero size.
func checkCatalog(name string, vecs [][]float64, want int) error {
	if len(vecs) != want {
		return fmt.Errorf("embed %s catalog: want %d vectors, got %d", name, want, len(vecs))
	}
	dim := len(vecs[0])
	if dim == 0 {
		return fmt.Errorf("%w: empty %s embedding", ErrDimensionMismatch, name)
	}
	for i, v := range vecs {
		if len(v) != dim {
			return fmt.Errorf("%w: %s phrase %d has %d, want %d", ErrDimensionMismatch, name, i, len(v), dim)
		}
	}
	return nil
}

// nearest returns the index of the catalog vector with the highest cosine
// similarity to v. The lowest index wins ties.
func nearest(v []float64, catalog [][]float64) int {
	best, bestScore := 0, 0.0
	vn := floats.Norm(v, 2)
	for i, c := range catalog {
		score := cosine(v, c, vn)
		if i == 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func cosine(a, b []float64, an float64) float64 {
	if len(a) != len(b) {
		return -1
	}
	bn := floats.Norm(b, 2)
	if an == 0 || bn == 0 {
		return 0
	}
	return floats.Dot(a, b) / (an * bn)
}

// ClassifyTracks labels every track in frame. Tracks whose crop is empty or
// whose classification fails are left out of the result and logged.
func (c *Classifier) ClassifyTracks(ctx context.Context, frame gocv.Mat, tracks map[int]image.Rectangle) map[int]PersonState {
	ids := make([]int, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	states := make(map[int]PersonState, len(tracks))

	for _, id := range ids {
		state, err := c.classifyTrack(ctx, frame, id, bounds, tracks[id])
		if err != nil {
			slog.Debug("track not classified", "error", err)
			continue
		}
		states[id] = state
	}
	return states
}

func (c *Classifier) classifyTrack(ctx context.Context, frame gocv.Mat, id int, bounds, box image.Rectangle) (PersonState, error) {
	r := box.Intersect(bounds)
	if r.Empty() {
		return PersonState{}, &ClassificationError{TrackID: id, Err: ErrEmptyCrop}
	}
	crop := frame.Region(r)
	defer crop.Close()

	state, err := c.Classify(ctx, crop)
	if err != nil {
		return PersonState{}, &ClassificationError{TrackID: id, Err: err}
	}
	return state, nil
}
