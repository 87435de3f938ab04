package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"easel-ai/internal/domain"
)

const systemPrompt = `You are a canvas editing assistant. You translate natural-language
requests into tool calls that create, modify, arrange, and delete objects on a
shared canvas.

Rules:
- Always act through tool calls. Reply with text only when the request is
  genuinely ambiguous and you need clarification.
- Objects are addressed by their numeric id. Use the ids from the canvas
  context below; never invent ids.
- When the user says "this", "that", "these" or "the selected ones", they mean
  the objects listed under Selection.
- Coordinates are pixels; (0,0) is the canvas top-left, x grows right, y grows
  down. Place new objects inside the user's viewport unless told otherwise.
- When no color is given for a new object, use the user's current color.
- For repeated identical objects, prefer one create call with a count instead
  of many single calls.`

// largeCanvasThreshold is where the prompt switches from a full per-object
// listing to aggregate statistics. Past this size an explicit list wastes
// tokens and degrades tool-call accuracy.
const largeCanvasThreshold = 50

// buildPrompt renders the user's command together with the canvas context the
// model needs to resolve references: object inventory with stable display
// names, selection, viewport, and current color.
func buildPrompt(cmd domain.Command, objects []domain.ObjectRef) string {
	var b strings.Builder

	b.WriteString("Canvas context:\n")
	if len(objects) == 0 {
		b.WriteString("The canvas is empty.\n")
	} else if len(objects) <= largeCanvasThreshold {
		writeObjectList(&b, cmd, objects)
	} else {
		writeObjectSummary(&b, objects)
	}

	if len(cmd.SelectedIDs) > 0 {
		b.WriteString("\nSelection: object ids ")
		for i, id := range cmd.SelectedIDs {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%d", id)
		}
		b.WriteString("\n")
	}

	if cmd.Viewport != nil {
		v := cmd.Viewport
		fmt.Fprintf(&b, "\nViewport: x=%.0f y=%.0f width=%.0f height=%.0f (center %.0f,%.0f)\n",
			v.X, v.Y, v.Width, v.Height, v.X+v.Width/2, v.Y+v.Height/2)
	}

	if cmd.CurrentColor != "" {
		fmt.Fprintf(&b, "\nCurrent color: %s\n", cmd.CurrentColor)
	}

	fmt.Fprintf(&b, "\nUser request: %s", cmd.Text)
	return b.String()
}

// writeObjectList emits one line per object with a display name derived from
// creation order ("Rectangle 1", "Rectangle 2", "Text 1"), so the model can
// resolve "the second rectangle" to a concrete id.
func writeObjectList(b *strings.Builder, cmd domain.Command, objects []domain.ObjectRef) {
	fmt.Fprintf(b, "Objects (%d, in creation order):\n", len(objects))

	counts := make(map[string]int)
	for _, o := range objects {
		counts[o.Type]++
		line := fmt.Sprintf("- %s %d (id %d) at (%.0f, %.0f), %.0fx%.0f",
			displayType(o.Type), counts[o.Type], o.ID,
			o.Position.X, o.Position.Y, o.Width(), o.Height())
		if o.Fill != "" {
			line += ", fill " + o.Fill
		}
		if o.Text != "" {
			line += fmt.Sprintf(", text %q", o.Text)
		}
		if region := viewportRegion(cmd.Viewport, o); region != "" {
			line += ", " + region
		}
		b.WriteString(line + "\n")
	}
}

// writeObjectSummary emits per-type counts and the canvas bounding box
// instead of a full listing. The model is expected to narrow down with
// follow-up criteria (type, color, area) rather than enumerate ids.
func writeObjectSummary(b *strings.Builder, objects []domain.ObjectRef) {
	counts := make(map[string]int)
	minX, minY := objects[0].Position.X, objects[0].Position.Y
	maxX, maxY := minX, minY
	for _, o := range objects {
		counts[o.Type]++
		minX = min(minX, o.Position.X)
		minY = min(minY, o.Position.Y)
		maxX = max(maxX, o.Position.X+o.Width())
		maxY = max(maxY, o.Position.Y+o.Height())
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintf(b, "Objects: %d total (listing omitted for size). By type: ", len(objects))
	for i, t := range types {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%d %s", counts[t], t)
	}
	fmt.Fprintf(b, ".\nBounding box: (%.0f, %.0f) to (%.0f, %.0f).\n", minX, minY, maxX, maxY)
	b.WriteString("Object ids are not listed at this size. To arrange objects, pass a filter\n")
	b.WriteString("(type, fill, min_size, max_size) to arrange_layout instead of object_ids;\n")
	b.WriteString("it is resolved against the full inventory server-side. Otherwise use the\n")
	b.WriteString("selection, or ask for clarification.\n")
}

// viewportRegion names where an object sits relative to the viewport, so the
// model can resolve phrases like "the circle in the top left".
func viewportRegion(v *domain.Viewport, o domain.ObjectRef) string {
	if v == nil || v.Width <= 0 || v.Height <= 0 {
		return ""
	}

	cx := o.Position.X + o.Width()/2
	cy := o.Position.Y + o.Height()/2
	if cx < v.X || cx > v.X+v.Width || cy < v.Y || cy > v.Y+v.Height {
		return "off-screen"
	}

	col := "center"
	switch {
	case cx < v.X+v.Width/3:
		col = "left"
	case cx > v.X+2*v.Width/3:
		col = "right"
	}
	row := "middle"
	switch {
	case cy < v.Y+v.Height/3:
		row = "top"
	case cy > v.Y+2*v.Height/3:
		row = "bottom"
	}

	if row == "middle" && col == "center" {
		return "viewport center"
	}
	if col == "center" {
		return "viewport " + row
	}
	if row == "middle" {
		return "viewport " + col
	}
	return "viewport " + row + "-" + col
}

func displayType(t string) string {
	if t == "" {
		return "Object"
	}
	return strings.ToUpper(t[:1]) + t[1:]
}
