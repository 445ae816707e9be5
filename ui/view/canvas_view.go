package view

import (
	"image"

	"github.com/soocke/annotator-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CanvasView shows the rendered annotation canvas and the crop preview of
// the hovered box. Pointer coordinates are relative to the image origin.
type CanvasView interface {
	ShowCanvas(img image.Image)
	ShowCrop(img image.Image)
	BuildPreview(parent *FrameWidget, row int)
	BindPointer(down, move, up func(x, y float64))
	BindKey(sequence string, fn func())
}

type canvasView struct {
	canvasLabel *LabelWidget
	cropLabel   *LabelWidget
	canvasPhoto *Img // current photo, deleted before replacement
	cropPhoto   *Img
}

const (
	placeholderW = 640
	placeholderH = 400
	cropSide     = 220
)

// NewCanvasView creates the canvas label at (row, col) of the root window.
func NewCanvasView(row, col int) CanvasView {
	photo := NewPhoto(Data(images.EncodePNG(image.NewNRGBA(image.Rect(0, 0, placeholderW, placeholderH)))))
	canvas := Label(Image(photo), Borderwidth(0), Anchor("nw"))
	Grid(canvas, Row(row), Column(col), Sticky("nw"), Padx("0.4m"), Pady("0.4m"))
	return &canvasView{canvasLabel: canvas, canvasPhoto: photo}
}

// BuildPreview places the crop preview inside parent.
func (v *canvasView) BuildPreview(parent *FrameWidget, row int) {
	photo := NewPhoto(Data(images.EncodePNG(image.NewNRGBA(image.Rect(0, 0, cropSide, cropSide)))))
	v.cropLabel = Label(Image(photo), Borderwidth(1), Relief("sunken"))
	v.cropPhoto = photo
	Grid(v.cropLabel, In(parent), Row(row), Column(0), Columnspan(2), Sticky("n"), Padx("0.4m"), Pady("0.4m"))
}

func (v *canvasView) BindPointer(down, move, up func(x, y float64)) {
	if v.canvasLabel == nil {
		return
	}
	forward := func(fn func(x, y float64)) func(*Event) {
		return func(e *Event) {
			if fn != nil && e != nil {
				fn(float64(e.X), float64(e.Y))
			}
		}
	}
	Bind(v.canvasLabel, "<ButtonPress-1>", Command(forward(down)))
	Bind(v.canvasLabel, "<B1-Motion>", Command(forward(move)))
	Bind(v.canvasLabel, "<Motion>", Command(forward(move)))
	Bind(v.canvasLabel, "<ButtonRelease-1>", Command(forward(up)))
	// keys go to the canvas once the pointer is over it
	Bind(v.canvasLabel, "<Enter>", Command(func() { Focus(v.canvasLabel) }))
}

func (v *canvasView) BindKey(sequence string, fn func()) {
	if v.canvasLabel != nil {
		Bind(v.canvasLabel, sequence, Command(fn))
	}
}

func (v *canvasView) ShowCanvas(img image.Image) {
	if v.canvasLabel == nil {
		return
	}
	if img == nil {
		img = image.NewNRGBA(image.Rect(0, 0, placeholderW, placeholderH))
	}
	v.canvasPhoto = replacePhoto(v.canvasLabel, v.canvasPhoto, img)
}

func (v *canvasView) ShowCrop(img image.Image) {
	if v.cropLabel == nil {
		return
	}
	if img == nil {
		img = image.NewNRGBA(image.Rect(0, 0, cropSide, cropSide))
	}
	v.cropPhoto = replacePhoto(v.cropLabel, v.cropPhoto, img)
}

// replacePhoto shows img on label and disposes of the previous photo so
// off-screen pixel data does not accumulate.
func replacePhoto(label *LabelWidget, prev *Img, img image.Image) *Img {
	photo := NewPhoto(Data(images.EncodePNG(img)))
	label.Configure(Image(photo))
	if prev != nil {
		prev.Delete()
	}
	return photo
}
