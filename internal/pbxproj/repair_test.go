package pbxproj

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// descriptor builds a minimal pbxproj-shaped file from per-block settings.
func descriptor(blocks ...string) []byte {
	var b strings.Builder
	b.WriteString("// !$*UTF8*$!\n{\n\tobjects = {\n")
	for i, settings := range blocks {
		b.WriteString("\t\tCFG")
		b.WriteString(string(rune('A' + i)))
		b.WriteString(" = {\n\t\t\tisa = XCBuildConfiguration;\n\t\t\tbuildSettings = {\n")
		b.WriteString(settings)
		b.WriteString("\t\t\t};\n\t\t\tname = Release;\n\t\t};\n")
	}
	b.WriteString("\t};\n}\n")
	return []byte(b.String())
}

func identifiers(t *testing.T, data []byte) []string {
	t.Helper()
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ids := make([]string, len(doc.Blocks))
	for i, b := range doc.Blocks {
		ids[i] = b.Identifier
	}
	return ids
}

func TestRepairThreeWayCollision(t *testing.T) {
	// Three blocks with the same identifier, the second marked as a test
	// target. Expected: base, base.tests, base.app.2 with no duplicates.
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n\t\t\t\tTEST_HOST = \"$(BUILT_PRODUCTS_DIR)/Runner.app/Runner\";\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n",
	)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := Repair(doc, Options{BaseIdentifier: "com.x.app"}); err != nil {
		t.Fatalf("Repair() error = %v", err)
	}

	got := identifiers(t, doc.Serialize())
	want := []string{"com.x.app", "com.x.app.tests", "com.x.app.app.2"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block %d identifier = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRepairIdempotent(t *testing.T) {
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n\t\t\t\tTEST_HOST = \"$(BUILT_PRODUCTS_DIR)/Runner.app/Runner\";\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n",
	)

	opts := Options{BaseIdentifier: "com.x.app"}

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := Repair(doc, opts); err != nil {
		t.Fatalf("first Repair() error = %v", err)
	}
	first := doc.Serialize()

	doc2, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse(first) error = %v", err)
	}
	if _, err := Repair(doc2, opts); err != nil {
		t.Fatalf("second Repair() error = %v", err)
	}
	second := doc2.Serialize()

	if string(first) != string(second) {
		t.Errorf("repair is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if doc2.Changed() {
		t.Error("second run should report no changes")
	}
}

func TestRepairSharedConfigurationFamily(t *testing.T) {
	// Debug/Release/Profile of one target share an identifier and must keep
	// sharing it after repair; the test family likewise.
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.placeholder;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.placeholder;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.placeholder;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.placeholderTests;\n\t\t\t\tBUNDLE_LOADER = \"$(TEST_HOST)\";\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.placeholderTests;\n\t\t\t\tBUNDLE_LOADER = \"$(TEST_HOST)\";\n",
	)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	assignments, err := Repair(doc, Options{BaseIdentifier: "com.moasq.demo"})
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("got %d groups, want 2 (one app family, one test family)", len(assignments))
	}

	got := identifiers(t, doc.Serialize())
	want := []string{
		"com.moasq.demo", "com.moasq.demo", "com.moasq.demo",
		"com.moasq.demo.tests", "com.moasq.demo.tests",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block %d identifier = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRepairClassificationStability(t *testing.T) {
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n\t\t\t\tTEST_HOST = \"$(BUILT_PRODUCTS_DIR)/Runner.app/Runner\";\n",
	)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	first, err := Repair(doc, Options{BaseIdentifier: "com.x.app"})
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if first[0].Class != ClassTest {
		t.Fatalf("block with TEST_HOST classified as %s, want test", first[0].Class)
	}

	doc2, err := Parse(doc.Serialize())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	second, err := Repair(doc2, Options{BaseIdentifier: "com.x.app"})
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if second[0].Class != ClassTest {
		t.Errorf("classification flipped to %s on second run", second[0].Class)
	}
}

func TestRepairEmptyBaseFails(t *testing.T) {
	doc, err := Parse(descriptor("\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := Repair(doc, Options{}); err == nil {
		t.Fatal("Repair() with empty base identifier should fail")
	}
}

func TestRepairPreservesSurroundingBytes(t *testing.T) {
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = \"com.x.app\";\n\t\t\t\tSWIFT_VERSION = 5.0;\n",
	)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := Repair(doc, Options{BaseIdentifier: "com.moasq.other"}); err != nil {
		t.Fatalf("Repair() error = %v", err)
	}

	out := string(doc.Serialize())
	if !strings.Contains(out, `PRODUCT_BUNDLE_IDENTIFIER = "com.moasq.other";`) {
		t.Errorf("quoting style not preserved:\n%s", out)
	}
	if !strings.Contains(out, "SWIFT_VERSION = 5.0;") {
		t.Errorf("unrelated settings modified:\n%s", out)
	}
	if !strings.HasPrefix(out, "// !$*UTF8*$!\n") {
		t.Errorf("file header modified:\n%s", out)
	}
}

func TestRepairPodsPlaceholderOnly(t *testing.T) {
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.shared;\n\t\t\t\tPRODUCT_NAME = AlphaKit;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = org.vendor.realid;\n\t\t\t\tPRODUCT_NAME = VendorKit;\n",
	)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	assignments, err := RepairPods(doc, []string{"com.example"})
	if err != nil {
		t.Fatalf("RepairPods() error = %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("got %d assignments, want 1 (vendor identifier must stay)", len(assignments))
	}

	got := identifiers(t, doc.Serialize())
	if got[0] != "com.example.shared.pod.alphakit" {
		t.Errorf("placeholder rewritten to %q, want com.example.shared.pod.alphakit", got[0])
	}
	if got[1] != "org.vendor.realid" {
		t.Errorf("third-party identifier rewritten to %q", got[1])
	}
}

func TestRepairPodsIdempotent(t *testing.T) {
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.shared;\n\t\t\t\tPRODUCT_NAME = AlphaKit;\n",
	)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := RepairPods(doc, []string{"com.example"}); err != nil {
		t.Fatalf("RepairPods() error = %v", err)
	}
	first := doc.Serialize()

	doc2, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse(first) error = %v", err)
	}
	assignments, err := RepairPods(doc2, []string{"com.example"})
	if err != nil {
		t.Fatalf("second RepairPods() error = %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("second run produced %d assignments, want 0", len(assignments))
	}
	if string(doc2.Serialize()) != string(first) {
		t.Error("pods repair is not idempotent")
	}
}

func TestRepairPodsGroupsBuildConfigurations(t *testing.T) {
	// Debug and Release blocks of one pod target share identifier and
	// product name: one family, one assignment, both blocks rewritten.
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.shared;\n\t\t\t\tPRODUCT_NAME = AlphaKit;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.shared;\n\t\t\t\tPRODUCT_NAME = AlphaKit;\n",
	)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	assignments, err := RepairPods(doc, []string{"com.example"})
	if err != nil {
		t.Fatalf("RepairPods() error = %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("got %d assignments, want 1 family", len(assignments))
	}

	got := identifiers(t, doc.Serialize())
	for i, id := range got {
		if id != "com.example.shared.pod.alphakit" {
			t.Errorf("block %d = %q, want com.example.shared.pod.alphakit", i, id)
		}
	}
}

func TestRepairPodsReportsCollision(t *testing.T) {
	// Two separated pod targets with the same identifier and product name
	// would land on the same rewritten identifier; that must be reported,
	// not written.
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.shared;\n\t\t\t\tPRODUCT_NAME = AlphaKit;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = org.vendor.realid;\n\t\t\t\tPRODUCT_NAME = VendorKit;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.example.shared;\n\t\t\t\tPRODUCT_NAME = AlphaKit;\n",
	)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := RepairPods(doc, []string{"com.example"}); !errors.Is(err, ErrCollision) {
		t.Fatalf("RepairPods() error = %v, want ErrCollision", err)
	}
}

func TestRepairFileWritesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.pbxproj")
	data := descriptor(
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n",
		"\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n",
	)
	// Two consecutive identical main blocks form one family: force a change
	// by repairing to a different base.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write descriptor: %v", err)
	}

	res, err := RepairFile(path, Options{BaseIdentifier: "com.moasq.fresh"}, false)
	if err != nil {
		t.Fatalf("RepairFile() error = %v", err)
	}
	if !res.Changed {
		t.Fatal("RepairFile() reported no change")
	}
	if res.BackupPath == "" {
		t.Fatal("no backup written for a mutating repair")
	}

	bak, err := os.ReadFile(res.BackupPath)
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if string(bak) != string(data) {
		t.Error("backup content differs from pre-mutation bytes")
	}
}

func TestRepairFileDryRunLeavesFileAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.pbxproj")
	data := descriptor("\t\t\t\tPRODUCT_BUNDLE_IDENTIFIER = com.x.app;\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write descriptor: %v", err)
	}

	res, err := RepairFile(path, Options{BaseIdentifier: "com.moasq.fresh"}, true)
	if err != nil {
		t.Fatalf("RepairFile() error = %v", err)
	}
	if !res.Changed {
		t.Fatal("dry run should still report the pending change")
	}
	if res.BackupPath != "" {
		t.Error("dry run must not create a backup")
	}

	got, _ := os.ReadFile(path)
	if string(got) != string(data) {
		t.Error("dry run modified the file")
	}
}
