package hwtest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/hdlsim/elaborate"
	"github.com/db47h/hdlsim/hwtest"
	"github.com/db47h/hdlsim/resolver"
)

func TestComparePart(t *testing.T) {
	dir := t.TempDir()
	src := `CHIP CustomOr {
    IN a, b;
    OUT out;
    PARTS:
    Nand(a=a, b=a, out=notA);
    Nand(a=b, b=b, out=notB);
    Nand(a=notA, b=notB, out=out);
}
`
	if err := os.WriteFile(filepath.Join(dir, "CustomOr.hdl"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	r := resolver.New([]string{dir})
	custom, err := elaborate.Elaborate(r, "CustomOr", nil)
	if err != nil {
		t.Fatal(err)
	}

	std := resolver.New(nil)
	or, err := elaborate.Elaborate(std, "Or", nil)
	if err != nil {
		t.Fatal(err)
	}

	hwtest.ComparePart(t, or, custom)
}
