package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
)

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	addInlineSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.flx файлы
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".flx" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
	if err != nil {
		return
	}
	// добавляем хотя бы один минимальный пример на случай пустого testdata
	f.Add([]byte{})
	f.Add([]byte("circuit Top :\n  module Top :\n    input clk : Clock\n"))
}

func addInlineSeeds(f *testing.F) {
	seeds := []string{
		// все виды операторов в одном модуле
		`circuit Mixed :
  module Mixed :
    input clk : Clock
    input sel : UInt<1>
    input in : { lo : UInt<4>, hi : UInt<4> }
    output out : UInt<8>
    wire joined : UInt<8>
    reg held : UInt<8>, clk
    node flipped = not(joined)
    joined <= cat(in.hi, in.lo)
    when sel :
      held <= flipped
    out <= held

  extmodule Pad :
    input p : UInt<8>
`,
		// память в трёх написаниях
		`circuit Mems :
  module Mems :
    input clk : Clock
    smem deep : UInt<8>[64]
    cmem shallow : UInt<4>[8]
    mem raw : UInt<8>[16] read-under-write => old
`,
		// векторные суффиксы и вложенные bundle
		`circuit Shapes :
  module Shapes :
    input grid : UInt<8>[4][2]
    input link : { data : UInt<8>[2], meta : { tag : UInt<3> } }
    output probe : UInt<8>
    probe <= grid[3][1]
`,
		// инстанс и связка портов
		`circuit Pair :
  module Leaf :
    input x : UInt<8>
    output y : UInt<8>
    y <= x

  module Pair :
    input x : UInt<8>
    output y : UInt<8>
    inst leaf of Leaf
    leaf.x <= x
    y <= leaf.y
`,
		// заведомо кривые входы, чтобы корпус покрывал ветки ошибок
		"circuit :\n",
		"circuit X :\n\tmodule X :\n",
		"circuit X :\n  module X :\n    output out : UInt<0>\n",
		"circuit X :\n  module X :\n    else :\n",
	}
	for _, s := range seeds {
		f.Add(clampSeed([]byte(s)))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
