package transit

import (
	"strings"
	"testing"

	"github.com/yourorg/subwaymap/internal/mbta"
)

func shape(id, polyline string) mbta.Resource {
	return mbta.Resource{
		ID:         id,
		Type:       "shape",
		Attributes: map[string]interface{}{"polyline": polyline},
	}
}

func shapeIDs(shapes []mbta.Resource) []string {
	ids := make([]string, 0, len(shapes))
	for _, s := range shapes {
		ids = append(ids, s.ID)
	}
	return ids
}

func sameIDs(got []mbta.Resource, want []string) bool {
	ids := shapeIDs(got)
	if len(ids) != len(want) {
		return false
	}
	for i := range ids {
		if ids[i] != want[i] {
			return false
		}
	}
	return true
}

func TestResolveShapesEmpty(t *testing.T) {
	resolved := resolveShapes("Red", nil)
	if resolved == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(resolved) != 0 {
		t.Errorf("Expected no shapes, got %d", len(resolved))
	}
}

func TestResolveShapesRedLineKeepsAllBranches(t *testing.T) {
	// Ashmont y Braintree en ambas direcciones: largos parecidos pero
	// trazados distintos, ninguno debe colapsarse
	all := []mbta.Resource{
		shape("canonical-931_0009", strings.Repeat("a", 100)),
		shape("canonical-931_0010", strings.Repeat("b", 98)),
		shape("canonical-933_0009", strings.Repeat("c", 96)),
		shape("canonical-933_0010", strings.Repeat("d", 94)),
		shape("45_0", strings.Repeat("e", 120)),
	}

	resolved := resolveShapes("Red", all)
	if !sameIDs(resolved, []string{"canonical-931_0009", "canonical-931_0010", "canonical-933_0009", "canonical-933_0010"}) {
		t.Errorf("Expected the four canonical branches in arrival order, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesRedLineSingleCanonical(t *testing.T) {
	// Con un solo canónico la Red Line no entra al atajo ni al merge
	all := []mbta.Resource{
		shape("canonical-931_0009", strings.Repeat("a", 100)),
		shape("45_0", strings.Repeat("b", 300)),
	}

	resolved := resolveShapes("Red", all)
	if !sameIDs(resolved, []string{"canonical-931_0009"}) {
		t.Errorf("Expected only the canonical shape, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesRedLineWithoutCanonical(t *testing.T) {
	all := []mbta.Resource{
		shape("45_0", strings.Repeat("a", 50)),
		shape("46_0", strings.Repeat("b", 200)),
		shape("47_0", strings.Repeat("c", 120)),
	}

	// Sin canónicos se toman los 2 más largos, ordenados por largo
	resolved := resolveShapes("Red", all)
	if !sameIDs(resolved, []string{"46_0", "47_0"}) {
		t.Errorf("Expected the two longest shapes, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesExactDuplicatesCollapse(t *testing.T) {
	all := []mbta.Resource{
		shape("canonical-8000012_0", strings.Repeat("a", 90)),
		shape("canonical-8000012_0", strings.Repeat("b", 40)),
		shape("canonical-8000013_0", strings.Repeat("c", 88)),
	}

	resolved := resolveShapes("Red", all)
	if !sameIDs(resolved, []string{"canonical-8000012_0", "canonical-8000013_0"}) {
		t.Fatalf("Expected duplicates to collapse, got %v", shapeIDs(resolved))
	}

	// Del duplicado gana la primera aparición
	if got := resolved[0].Polyline(); got != strings.Repeat("a", 90) {
		t.Errorf("Expected first occurrence to win, got polyline of len %d", len(got))
	}
}

func TestResolveShapesMergeAndStrippedDedup(t *testing.T) {
	// Más de 2 canónicos en una ruta sin ramales: se suma el shape crudo
	// más largo, pero su ID base ya existe como canónico y se descarta;
	// los canónicos de largo parecido colapsan al más completo
	all := []mbta.Resource{
		shape("canonical-810_0004", strings.Repeat("a", 100)),
		shape("canonical-810_0005", strings.Repeat("b", 99)),
		shape("canonical-810_0006", strings.Repeat("c", 98)),
		shape("810_0004", strings.Repeat("d", 200)),
	}

	resolved := resolveShapes("Green-B", all)
	if !sameIDs(resolved, []string{"canonical-810_0004"}) {
		t.Errorf("Expected a single representative shape, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesMergeAddsDistinctLongest(t *testing.T) {
	// El shape crudo más largo tiene ID base nuevo: sobrevive al dedup y
	// al ranking por largo junto a los canónicos más largos
	all := []mbta.Resource{
		shape("canonical-810_0004", strings.Repeat("a", 100)),
		shape("canonical-810_0005", strings.Repeat("b", 60)),
		shape("canonical-810_0006", strings.Repeat("c", 55)),
		shape("810_0099", strings.Repeat("d", 200)),
	}

	resolved := resolveShapes("Green-B", all)
	// Ratio (200-55)/200 = 0.725 >= 0.15: ramales distintos, top 3
	if !sameIDs(resolved, []string{"810_0099", "canonical-810_0004", "canonical-810_0005"}) {
		t.Errorf("Expected merged shape ranked first, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesBranchesStayApart(t *testing.T) {
	// Sin canónicos y con largos muy distintos (>= 15%): ramales
	all := []mbta.Resource{
		shape("long_0", strings.Repeat("a", 100)),
		shape("short_0", strings.Repeat("b", 80)),
	}

	resolved := resolveShapes("Providence", all)
	if !sameIDs(resolved, []string{"long_0", "short_0"}) {
		t.Errorf("Expected both branches, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesSimilarLengthsCollapse(t *testing.T) {
	// Largos parecidos (< 15%): direcciones del mismo trazado, gana el
	// más completo
	all := []mbta.Resource{
		shape("dir0", strings.Repeat("a", 100)),
		shape("dir1", strings.Repeat("b", 99)),
	}

	resolved := resolveShapes("Orange", all)
	if !sameIDs(resolved, []string{"dir0"}) {
		t.Errorf("Expected a single direction, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesStableTies(t *testing.T) {
	// Empate exacto de largo: conserva el orden de llegada
	all := []mbta.Resource{
		shape("first", strings.Repeat("a", 50)),
		shape("second", strings.Repeat("b", 50)),
	}

	resolved := resolveShapes("Blue", all)
	if !sameIDs(resolved, []string{"first"}) {
		t.Errorf("Expected the first arrival to win the tie, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesSkipsEmptyPolylines(t *testing.T) {
	all := []mbta.Resource{
		shape("empty_0", ""),
		shape("real_0", strings.Repeat("a", 40)),
	}

	resolved := resolveShapes("Orange", all)
	if !sameIDs(resolved, []string{"real_0"}) {
		t.Errorf("Expected empty polylines to be skipped, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesAllEmptyPolylines(t *testing.T) {
	all := []mbta.Resource{
		shape("empty_0", ""),
		shape("empty_1", ""),
	}

	resolved := resolveShapes("Orange", all)
	if len(resolved) != 0 {
		t.Errorf("Expected no shapes, got %v", shapeIDs(resolved))
	}
}

func TestResolveShapesAnnotatesRouteID(t *testing.T) {
	all := []mbta.Resource{
		shape("canonical-931_0009", strings.Repeat("a", 100)),
		shape("canonical-933_0009", strings.Repeat("b", 96)),
	}

	resolved := resolveShapes("Red", all)
	if len(resolved) != 2 {
		t.Fatalf("Expected 2 shapes, got %d", len(resolved))
	}
	for _, s := range resolved {
		if got := s.Attributes["_route_id"]; got != "Red" {
			t.Errorf("Expected _route_id 'Red' on %s, got %v", s.ID, got)
		}
	}
}

func TestResolveShapesDoesNotMutateInput(t *testing.T) {
	all := []mbta.Resource{
		shape("canonical-931_0009", strings.Repeat("a", 100)),
		shape("canonical-933_0009", strings.Repeat("b", 96)),
	}

	resolveShapes("Red", all)

	for _, s := range all {
		if _, stamped := s.Attributes["_route_id"]; stamped {
			t.Errorf("Expected input %s to stay untouched", s.ID)
		}
		if len(s.Attributes) != 1 {
			t.Errorf("Expected input %s to keep only its polyline attribute", s.ID)
		}
	}
}

func BenchmarkResolveShapes(b *testing.B) {
	all := make([]mbta.Resource, 0, 40)
	for i := 0; i < 40; i++ {
		id := "8000012_" + strings.Repeat("0", i%4)
		if i%5 == 0 {
			id = "canonical-" + id
		}
		all = append(all, shape(id, strings.Repeat("p", 50+i*3)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resolveShapes("Green-B", all)
	}
}
