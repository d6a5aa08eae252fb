package ui

// Renderer must not block: Render is called on UI.Loop goroutine.
type Renderer interface {
	Render(View)
}

type RenderFunc func(View)

func (f RenderFunc) Render(v View) { f(v) }

type View struct {
	Screen    Screen
	Props     Snapshot
	Callbacks Callbacks
}

// Callbacks are safe to call from any goroutine.
type Callbacks struct {
	OnSelectFlow     func(Flow)
	OnSubmitDocument func(document string)
	OnConfirm        func()
	OnSelectService  func(secretaryId string)
	OnBack           func()
	OnGoHome         func()
	OnActivity       func()
}
