package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/teascroll/internal/doctree"
	"github.com/dgallion1/teascroll/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadMissingSourceIsAbsent(t *testing.T) {
	r := NewReader(t.TempDir())
	for _, spec := range Catalog {
		_, err := r.Read(spec.ID)
		require.Error(t, err, spec.ID)
		assert.True(t, IsAbsent(err), "%s: %v", spec.ID, err)
		assert.False(t, IsFormat(err))
	}
}

func TestReadTableWithBOMAndHeader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "historical_prices.csv", "\ufeffdynasty, tea_type ,price_liang\n宋,龙团,12.5\n明,松萝,3\n")

	raw, err := NewReader(dir).Read(Prices)
	require.NoError(t, err)
	require.NotNil(t, raw.Table)
	assert.Equal(t, []string{"dynasty", "tea_type", "price_liang"}, raw.Table.Header)
	require.Len(t, raw.Table.Rows, 2)

	col := raw.Table.Column("PRICE", "price_liang")
	assert.Equal(t, 2, col)
	assert.Equal(t, "12.5", raw.Table.Cell(raw.Table.Rows[0], col))
	assert.Equal(t, "", raw.Table.Cell(raw.Table.Rows[0], -1))
	assert.Equal(t, map[string]string{"tea_type": "龙团"}, raw.Table.Extra(raw.Table.Rows[0], 0, 2))
}

func TestReadTableFormatErrors(t *testing.T) {
	dir := t.TempDir()
	r := NewReader(dir)

	writeFile(t, dir, "historical_prices.csv", "")
	_, err := r.Read(Prices)
	require.Error(t, err)
	assert.True(t, IsFormat(err))

	writeFile(t, dir, "production_records.csv", "step,name\n1,采茶,extra\n")
	_, err = r.Read(Production)
	require.Error(t, err)
	assert.True(t, IsFormat(err))
	assert.Contains(t, err.Error(), "production_records.csv")
}

func TestReadDocumentJSONThenYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tea_routes.yaml", "nodes:\n  - name: 泉州\n    value: [118.6, 24.9]\nlinks: []\n")

	raw, err := NewReader(dir).Read(Routes)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tea_routes.yaml"), raw.Path)

	var doc struct {
		Nodes []struct {
			Name  string    `json:"name"`
			Value []float64 `json:"value"`
		} `json:"nodes"`
	}
	require.NoError(t, raw.Document.Decode(&doc))
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "泉州", doc.Nodes[0].Name)
	assert.Equal(t, []float64{118.6, 24.9}, doc.Nodes[0].Value)

	// A JSON file takes precedence over YAML.
	writeFile(t, dir, "tea_routes.json", `{"nodes": [], "links": []}`)
	raw, err = NewReader(dir).Read(Routes)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tea_routes.json"), raw.Path)
}

func TestReadDocumentFormatErrors(t *testing.T) {
	cases := map[string]string{
		"culture_spread.json":       `{"title": `,
		"historical_tea_areas.json": `{"a": 1} {"b": 2}`,
		"tea_process.yml":           "a: 1\n---\nb: 2\n",
	}
	dir := t.TempDir()
	for name, body := range cases {
		writeFile(t, dir, name, body)
	}
	r := NewReader(dir)
	for _, id := range []ID{CultureSpread, TeaAreas, ProcessSteps} {
		_, err := r.Read(id)
		require.Error(t, err, id)
		assert.True(t, IsFormat(err), "%s: %v", id, err)
	}
}

func TestYAMLNonStringKeys(t *testing.T) {
	doc, err := ParseYAML([]byte("1: 一\ntrue: 是\n"))
	require.NoError(t, err)
	var m map[string]string
	require.NoError(t, doc.Decode(&m))
	assert.Equal(t, "一", m["1"])
	assert.Equal(t, "是", m["true"])
}

func TestLibraryRead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_chajing.txt", "一之源\n\n二之具")
	writeFile(t, dir, "a_daguan.md", "# 大观茶论\n\n序。")
	writeFile(t, dir, "ignored.csv", "a,b\n")
	writeFile(t, dir, "broken.pdf", "not a pdf")

	docs, problems, err := NewLibrary(dir, parser.Options{}).Read()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "大观茶论", docs[0].Title)
	assert.Equal(t, "b_chajing", docs[1].Title)
	require.Len(t, problems, 1)
	assert.True(t, IsFormat(problems[0]))
}

// brokenXrefPDF is a PDF whose xref entry for object 2 points at object 1.
func brokenXrefPDF() string {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	obj1 := b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")
	xref := b.Len()
	b.WriteString("xref\n0 3\n0000000000 65535 f \n")
	fmt.Fprintf(&b, "%010d 00000 n \n%010d 00000 n \n", obj1, obj1)
	b.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n")
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xref)
	return b.String()
}

func TestLibraryReportsCorruptPDF(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "茶之为饮")
	writeFile(t, dir, "b.pdf", brokenXrefPDF())

	var (
		docs     int
		problems []error
		err      error
	)
	require.NotPanics(t, func() {
		var d []*doctree.Document
		d, problems, err = NewLibrary(dir, parser.Options{}).Read()
		docs = len(d)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, docs)
	require.Len(t, problems, 1)
	assert.True(t, IsFormat(problems[0]))
	assert.Contains(t, problems[0].Error(), "b.pdf")
}

func TestLibrarySkipsEmptyDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blank.txt", "\n\n   \n")
	writeFile(t, dir, "full.txt", "茶")

	docs, problems, err := NewLibrary(dir, parser.Options{}).Read()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0].Error(), "no text extracted")
}

func TestLibraryMissingDirIsAbsent(t *testing.T) {
	_, _, err := NewLibrary(filepath.Join(t.TempDir(), "nope"), parser.Options{}).Read()
	assert.True(t, IsAbsent(err))
}
