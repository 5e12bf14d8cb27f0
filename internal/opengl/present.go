package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// presentVertSrc draws a fullscreen triangle via gl_VertexID, no VBO.
const presentVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

// presentFragSrc applies exposure and gamma 2.2 to the HDR frame.
const presentFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D hdrFrame;
uniform float     exposure;

void main() {
    vec3 hdr = texture(hdrFrame, fragUV).rgb;
    vec3 mapped = vec3(1.0) - exp(-hdr * exposure);
    mapped = pow(mapped, vec3(1.0 / 2.2));
    outColor = vec4(mapped, 1.0);
}
` + "\x00"

// Presenter uploads a CPU HDR frame to a texture each frame and
// tone-maps it to the default framebuffer. Construct and use it on the
// goroutine that owns the GL context.
type Presenter struct {
	prog    uint32
	quadVAO uint32
	tex     uint32
	expLoc  int32

	texW int32
	texH int32

	// Exposure scales the HDR frame before tone mapping.
	Exposure float32
}

func NewPresenter() (*Presenter, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}

	p := &Presenter{Exposure: 1.0}
	prog, err := newProgram(presentVertSrc, presentFragSrc)
	if err != nil {
		return nil, fmt.Errorf("present shader: %w", err)
	}
	p.prog = prog
	p.expLoc = gl.GetUniformLocation(prog, gl.Str("exposure\x00"))

	gl.UseProgram(prog)
	gl.Uniform1i(gl.GetUniformLocation(prog, gl.Str("hdrFrame\x00")), 0)

	gl.GenVertexArrays(1, &p.quadVAO)

	gl.GenTextures(1, &p.tex)
	gl.BindTexture(gl.TEXTURE_2D, p.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return p, nil
}

// Upload pushes an RGBA float32 frame (width*height*4 values) into the
// presenter's texture, reallocating on size change.
func (p *Presenter) Upload(width, height int, pix []float32) error {
	if len(pix) < width*height*4 {
		return fmt.Errorf("frame buffer too small: %d values for %dx%d", len(pix), width, height)
	}

	gl.BindTexture(gl.TEXTURE_2D, p.tex)
	if int32(width) != p.texW || int32(height) != p.texH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F,
			int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, unsafe.Pointer(&pix[0]))
		p.texW = int32(width)
		p.texH = int32(height)
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0,
			int32(width), int32(height), gl.RGBA, gl.FLOAT, unsafe.Pointer(&pix[0]))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// Present tone-maps the uploaded frame to the default framebuffer at
// the given viewport size.
func (p *Presenter) Present(viewportW, viewportH int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(viewportW), int32(viewportH))
	gl.Disable(gl.DEPTH_TEST)

	gl.UseProgram(p.prog)
	gl.Uniform1f(p.expLoc, p.Exposure)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, p.tex)

	gl.BindVertexArray(p.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// Destroy frees all GPU resources owned by the presenter.
func (p *Presenter) Destroy() {
	if p.tex != 0 {
		gl.DeleteTextures(1, &p.tex)
		p.tex = 0
	}
	if p.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &p.quadVAO)
		p.quadVAO = 0
	}
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
		p.prog = 0
	}
}
