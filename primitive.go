package rowan

// PrimitiveKind selects how the vertices of a Primitive are assembled.
type PrimitiveKind uint8

const (
	Points PrimitiveKind = iota
	Lines
	LineStrip
	LineLoop
	Triangles
	TriangleStrip
	TriangleFan
	Quads
)

var primitiveNames = [...]string{
	"points", "lines", "line-strip", "line-loop",
	"triangles", "triangle-strip", "triangle-fan", "quads",
}

// String returns the primitive name.
func (k PrimitiveKind) String() string {
	if k.valid() {
		return primitiveNames[k]
	}
	return "unknown"
}

func (k PrimitiveKind) valid() bool { return k <= Quads }

// Triangles returns the vertex indices of the triangles k assembles from n
// vertices. Point and line kinds return none. A Quad splits along its
// first diagonal.
func (k PrimitiveKind) Triangles(n int) [][3]int {
	var out [][3]int
	switch k {
	case Triangles:
		for i := 0; i+2 < n; i += 3 {
			out = append(out, [3]int{i, i + 1, i + 2})
		}
	case TriangleStrip:
		for i := 0; i+2 < n; i++ {
			out = append(out, [3]int{i, i + 1, i + 2})
		}
	case TriangleFan:
		for i := 1; i+1 < n; i++ {
			out = append(out, [3]int{0, i, i + 1})
		}
	case Quads:
		for i := 0; i+3 < n; i += 4 {
			out = append(out, [3]int{i, i + 1, i + 2}, [3]int{i, i + 2, i + 3})
		}
	}
	return out
}

// Vertex is one Primitive vertex in entity-local coordinates with its
// texture coordinate.
type Vertex struct {
	X, Y, Z float64
	U, V    float64
}

func (e *Entity) checkPrimitive(op string) error {
	if e.kind != KindPrimitive {
		return e.ctx.fail(op, CodeWrongType)
	}
	return nil
}

// PrimitiveKind returns the primitive kind of a Primitive.
func (e *Entity) PrimitiveKind() PrimitiveKind { return e.prim }

// VertexData returns the vertex list of a Primitive. The slice is owned by
// the entity; backends read it in their Render hook.
func (e *Entity) VertexData() []Vertex { return e.verts }

// Vertex2D appends a vertex at z = 0. It takes the texture coordinate last
// set with TexCoord.
func (e *Entity) Vertex2D(x, y float64) error {
	return e.Vertex3D(x, y, 0)
}

// Vertex3D appends a vertex. It takes the texture coordinate last set with
// TexCoord.
func (e *Entity) Vertex3D(x, y, z float64) error {
	if err := e.checkPrimitive("Vertex3D"); err != nil {
		return err
	}
	e.verts = append(e.verts, Vertex{X: x, Y: y, Z: z, U: e.texcoord.X, V: e.texcoord.Y})
	e.flags |= FlagDirty
	return nil
}

// Vertices appends len(data)/dims vertices from a packed coordinate list.
// dims must be 2 (x, y) or 3 (x, y, z) and divide len(data).
func (e *Entity) Vertices(dims int, data []float64) error {
	const op = "Vertices"
	if err := e.checkPrimitive(op); err != nil {
		return err
	}
	if (dims != 2 && dims != 3) || len(data)%dims != 0 {
		return e.ctx.fail(op, CodeBadArguments)
	}
	for i := 0; i < len(data); i += dims {
		v := Vertex{X: data[i], Y: data[i+1], U: e.texcoord.X, V: e.texcoord.Y}
		if dims == 3 {
			v.Z = data[i+2]
		}
		e.verts = append(e.verts, v)
	}
	e.flags |= FlagDirty
	return nil
}

// TexCoord sets the texture coordinate used by the vertices appended after
// it.
func (e *Entity) TexCoord(u, v float64) error {
	if err := e.checkPrimitive("TexCoord"); err != nil {
		return err
	}
	e.texcoord = Vec2{u, v}
	return nil
}

// TexCoords assigns packed (u, v) pairs to the existing vertices in order,
// starting with the first. It fails with CodeBadArguments when data has an
// odd length or more pairs than there are vertices.
func (e *Entity) TexCoords(data []float64) error {
	const op = "TexCoords"
	if err := e.checkPrimitive(op); err != nil {
		return err
	}
	if len(data)%2 != 0 || len(data)/2 > len(e.verts) {
		return e.ctx.fail(op, CodeBadArguments)
	}
	for i := 0; i < len(data); i += 2 {
		e.verts[i/2].U = data[i]
		e.verts[i/2].V = data[i+1]
	}
	e.flags |= FlagDirty
	return nil
}

// ClearVertices empties the vertex list, keeping its capacity.
func (e *Entity) ClearVertices() error {
	if err := e.checkPrimitive("ClearVertices"); err != nil {
		return err
	}
	e.verts = e.verts[:0]
	e.texcoord = Vec2{}
	e.flags |= FlagDirty
	return nil
}
