package batch

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadBatchFile(t *testing.T) {
	content := `# German vocabulary
Haus

  Baum
guten Morgen
# comment
Wasser
`
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	queries, err := ReadBatchFile(path)
	if err != nil {
		t.Fatalf("ReadBatchFile() error: %v", err)
	}

	want := []string{"Haus", "Baum", "guten Morgen", "Wasser"}
	if !reflect.DeepEqual(queries, want) {
		t.Errorf("ReadBatchFile() = %v, want %v", queries, want)
	}
}

func TestReadBatchFileCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("Haus\r\nBaum\r\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	queries, err := ReadBatchFile(path)
	if err != nil {
		t.Fatalf("ReadBatchFile() error: %v", err)
	}
	if !reflect.DeepEqual(queries, []string{"Haus", "Baum"}) {
		t.Errorf("ReadBatchFile() = %v", queries)
	}
}

func TestReadBatchFileMissing(t *testing.T) {
	if _, err := ReadBatchFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
