// Package display uploads presented frames as an OpenGL texture and draws
// them as a fullscreen quad. It owns no render logic; whatever image the
// session presents is what ends up on screen.
package display

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/lumen-render/lumen/internal/logger"
)

// ErrResolutionMismatch reports a frame whose size differs from the
// resolution the display was created with.
var ErrResolutionMismatch = errors.New("display: frame resolution does not match")

// Display draws RGBA frames of a fixed render resolution into the current
// GL context, letterboxed to the window.
type Display struct {
	renderW, renderH int32

	program uint32
	vao     uint32
	vbo     uint32
	texture uint32
}

// New initializes OpenGL and builds the texture and quad used to show
// frames. Must be called after the GL context exists. renderW/renderH is
// the tracer resolution; windowW/windowH the initial window size.
func New(renderW, renderH, windowW, windowH int) (*Display, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	d := &Display{
		renderW: int32(renderW),
		renderH: int32(renderH),
	}

	var err error
	d.program, err = buildProgram()
	if err != nil {
		return nil, fmt.Errorf("building display shader: %w", err)
	}

	d.createQuad()
	d.createTexture()
	d.Resize(windowW, windowH)

	gl.ClearColor(0, 0, 0, 1)
	return d, nil
}

// Present uploads the frame into the texture and draws it. The frame must
// match the render resolution the display was created with.
func (d *Display) Present(frame *image.RGBA) error {
	b := frame.Bounds()
	if int32(b.Dx()) != d.renderW || int32(b.Dy()) != d.renderH {
		return fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrResolutionMismatch, b.Dx(), b.Dy(), d.renderW, d.renderH)
	}

	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.BindTexture(gl.TEXTURE_2D, d.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, d.renderW, d.renderH,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))

	gl.UseProgram(d.program)
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	return nil
}

// Resize letterboxes the viewport so the frame keeps its aspect ratio
// inside the new window size.
func (d *Display) Resize(windowW, windowH int) {
	if windowW < 1 {
		windowW = 1
	}
	if windowH < 1 {
		windowH = 1
	}

	frameAspect := float64(d.renderW) / float64(d.renderH)
	winAspect := float64(windowW) / float64(windowH)

	vw, vh := int32(windowW), int32(windowH)
	if winAspect > frameAspect {
		vw = int32(float64(windowH) * frameAspect)
	} else {
		vh = int32(float64(windowW) / frameAspect)
	}
	gl.Viewport((int32(windowW)-vw)/2, (int32(windowH)-vh)/2, vw, vh)
}

// Close releases the GL objects.
func (d *Display) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	if d.vbo != 0 {
		gl.DeleteBuffers(1, &d.vbo)
		d.vbo = 0
	}
	if d.texture != 0 {
		gl.DeleteTextures(1, &d.texture)
		d.texture = 0
	}
	if d.program != 0 {
		gl.DeleteProgram(d.program)
		d.program = 0
	}
}

func (d *Display) createTexture() {
	gl.GenTextures(1, &d.texture)
	gl.BindTexture(gl.TEXTURE_2D, d.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, d.renderW, d.renderH, 0,
		gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
}

func (d *Display) createQuad() {
	// Two triangles covering clip space; v flipped so image row 0 lands
	// at the top of the window.
	vertices := []float32{
		// x, y, u, v
		-1, -1, 0, 1,
		1, -1, 1, 1,
		1, 1, 1, 0,

		-1, -1, 0, 1,
		1, 1, 1, 0,
		-1, 1, 0, 0,
	}

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	gl.GenBuffers(1, &d.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, unsafe.Pointer(uintptr(2*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func buildProgram() (uint32, error) {
	vertexSource := `
		#version 410 core

		layout (location = 0) in vec2 aPos;
		layout (location = 1) in vec2 aTexCoord;

		out vec2 texCoord;

		void main() {
			gl_Position = vec4(aPos, 0.0, 1.0);
			texCoord = aTexCoord;
		}
	` + "\x00"

	fragmentSource := `
		#version 410 core

		in vec2 texCoord;
		out vec4 FragColor;

		uniform sampler2D frame;

		void main() {
			FragColor = texture(frame, texCoord);
		}
	` + "\x00"

	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %s", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %s", log)
	}
	return shader, nil
}
