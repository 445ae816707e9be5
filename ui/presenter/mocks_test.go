package presenter

import (
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soocke/annotator-go/domain/annotation"
	"github.com/soocke/annotator-go/domain/editor"
	"github.com/soocke/annotator-go/ui/images"
	"github.com/soocke/annotator-go/ui/model"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type mockView struct {
	progress  string
	info      string
	status    []string
	busy      bool
	errors    []string
	canvas    image.Image
	canvases  int
	crop      image.Image
	crops     int
	confirm   bool
	confirms  int
	answer    SaveChoice
	asks      int
	modeLabel string
	onImage   time.Duration
	total     time.Duration
}

func (v *mockView) SetProgress(text string)  { v.progress = text }
func (v *mockView) SetImageInfo(text string) { v.info = text }
func (v *mockView) SetStatus(text string)    { v.status = append(v.status, text) }
func (v *mockView) SetBusy(b bool)           { v.busy = b }
func (v *mockView) ShowError(title, msg string) {
	v.errors = append(v.errors, title+": "+msg)
}
func (v *mockView) ShowCanvas(img image.Image) { v.canvas = img; v.canvases++ }
func (v *mockView) ShowCrop(img image.Image)   { v.crop = img; v.crops++ }
func (v *mockView) Confirm(title, message string) bool {
	v.confirms++
	return v.confirm
}
func (v *mockView) AskSave(title, message string) SaveChoice {
	v.asks++
	return v.answer
}
func (v *mockView) SetModeLabel(s string)                    { v.modeLabel = s }
func (v *mockView) SetActivity(onImage, total time.Duration) { v.onImage, v.total = onImage, total }

func (v *mockView) lastStatus() string {
	if len(v.status) == 0 {
		return ""
	}
	return v.status[len(v.status)-1]
}

// memStore keeps label text per image path.
type memStore struct {
	table   annotation.ClassTable
	files   map[string]string
	saves   map[string]int
	saveErr error
	loadErr error
}

func newMemStore() *memStore {
	return &memStore{table: annotation.DefaultClassTable(), files: map[string]string{}, saves: map[string]int{}}
}

func (s *memStore) Load(path string) (*annotation.AnnotationSet, []error, error) {
	if s.loadErr != nil {
		return annotation.NewAnnotationSet(), nil, s.loadErr
	}
	set, warns := annotation.Deserialize(s.files[path], s.table)
	return set, warns, nil
}

func (s *memStore) Save(path string, set *annotation.AnnotationSet) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.files[path] = annotation.Serialize(set, s.table)
	s.saves[path]++
	set.MarkClean()
	return nil
}

func totalSaves(s *memStore) int {
	n := 0
	for _, c := range s.saves {
		n += c
	}
	return n
}

func fakeLoader(path string) (images.Loaded, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	return images.Loaded{Path: path, Image: img, Width: 100, Height: 50, Bytes: 2048}, nil
}

// makeDataset creates <root>/train/images with the given file names.
func makeDataset(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "train", "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("img"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		paths = append(paths, p)
	}
	return root, paths
}

func newEngine() *editor.Engine {
	return editor.NewEngine(discardLogger, editor.DefaultOptions())
}

func newImageModel() *model.ImageModel { return model.NewImageModel() }

// waitFor ticks fn until cond holds or the deadline passes.
func waitFor(t *testing.T, tick func(), cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tick()
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
