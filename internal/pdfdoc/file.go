// internal/pdfdoc/file.go
package pdfdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pagetrim/pagetrim/internal/geometry"
)

// maxTreeDepth bounds the parent walk for inheritable attributes so a
// malformed page tree with a reference cycle cannot hang the reader.
const maxTreeDepth = 64

// FileDoc is a Document backed by a parsed PDF file. All mutations happen
// on the in-memory cross-reference table; nothing touches the source file
// until Write is called. A FileDoc is written at most once.
type FileDoc struct {
	path      string
	ctx       *model.Context
	pageCount int
}

// Open parses and validates the PDF at path.
func Open(path string) (*FileDoc, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return &FileDoc{path: path, ctx: ctx, pageCount: pages}, nil
}

// Path returns the path the document was opened from.
func (d *FileDoc) Path() string { return d.path }

func (d *FileDoc) PageCount() int { return d.pageCount }

// Write serializes the document to path.
func (d *FileDoc) Write(path string) error {
	if err := api.WriteContextFile(d.ctx, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (d *FileDoc) Box(page int, kind BoxKind) (*geometry.Box, error) {
	dict, err := d.pageDict(page)
	if err != nil {
		return nil, err
	}
	k := kind
	for {
		b, err := d.findBox(dict, k)
		if err != nil {
			return nil, fmt.Errorf("page %d %s: %w", page, k.Key(), err)
		}
		if b != nil {
			return b, nil
		}
		next, ok := fallbackKind(k)
		if !ok {
			return nil, nil
		}
		k = next
	}
}

func (d *FileDoc) SetBox(page int, kind BoxKind, box geometry.Box) error {
	dict, err := d.pageDict(page)
	if err != nil {
		return err
	}
	dict[kind.Key()] = types.Array{
		types.Float(box.Left),
		types.Float(box.Bottom),
		types.Float(box.Right),
		types.Float(box.Top),
	}
	return nil
}

func (d *FileDoc) Producer() (string, error) {
	info, err := d.infoDict(false)
	if err != nil || info == nil {
		return "", err
	}
	obj, found := info.Find("Producer")
	if !found {
		return "", nil
	}
	return d.textString(obj)
}

func (d *FileDoc) SetProducer(producer string) error {
	info, err := d.infoDict(true)
	if err != nil {
		return err
	}
	body, isHex := encodeTextString(producer)
	if isHex {
		info["Producer"] = types.HexLiteral(body)
	} else {
		info["Producer"] = types.StringLiteral(body)
	}
	return nil
}

func (d *FileDoc) pageDict(page int) (types.Dict, error) {
	if page < 0 || page >= d.pageCount {
		return nil, fmt.Errorf("page %d: %w", page, ErrNoSuchPage)
	}
	dict, _, _, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("page %d: %w", page, ErrNoSuchPage)
	}
	return dict, nil
}

// findBox reads the raw box entry of one kind from the page dictionary.
// Media and crop boxes are inheritable, so absent entries are looked up
// through the Parent chain before giving up.
func (d *FileDoc) findBox(pageDict types.Dict, kind BoxKind) (*geometry.Box, error) {
	inheritable := kind == MediaBox || kind == CropBox
	dict := pageDict
	for depth := 0; depth < maxTreeDepth; depth++ {
		if obj, found := dict.Find(kind.Key()); found {
			return d.boxFromObject(obj)
		}
		if !inheritable {
			return nil, nil
		}
		parent, found := dict.Find("Parent")
		if !found {
			return nil, nil
		}
		obj, err := d.ctx.Dereference(parent)
		if err != nil {
			return nil, err
		}
		pd, ok := obj.(types.Dict)
		if !ok {
			return nil, nil
		}
		dict = pd
	}
	return nil, nil
}

// boxFromObject decodes a rectangle array into a Box. Entries that are
// not four-number arrays are treated as absent rather than fatal.
func (d *FileDoc) boxFromObject(obj types.Object) (*geometry.Box, error) {
	obj, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}
	arr, ok := obj.(types.Array)
	if !ok || len(arr) < 4 {
		return nil, nil
	}
	var coords [4]float64
	for i := 0; i < 4; i++ {
		el, err := d.ctx.Dereference(arr[i])
		if err != nil {
			return nil, err
		}
		switch v := el.(type) {
		case types.Integer:
			coords[i] = float64(v)
		case types.Float:
			coords[i] = float64(v)
		default:
			return nil, nil
		}
	}
	b := geometry.New(coords[0], coords[1], coords[2], coords[3])
	return &b, nil
}

// textString decodes a metadata string object, following an indirect
// reference first when present.
func (d *FileDoc) textString(obj types.Object) (string, error) {
	obj, err := d.ctx.Dereference(obj)
	if err != nil {
		return "", err
	}
	switch s := obj.(type) {
	case types.StringLiteral:
		return decodeTextLiteral(string(s)), nil
	case types.HexLiteral:
		return decodeTextHex(string(s)), nil
	}
	return "", nil
}

// infoDict returns the document information dictionary. With create set,
// a document without one gets a fresh dictionary registered in the
// cross-reference table.
func (d *FileDoc) infoDict(create bool) (types.Dict, error) {
	if d.ctx.Info != nil {
		obj, err := d.ctx.Dereference(*d.ctx.Info)
		if err != nil {
			return nil, err
		}
		if dict, ok := obj.(types.Dict); ok {
			return dict, nil
		}
	}
	if !create {
		return nil, nil
	}
	dict := types.Dict{}
	ir, err := d.ctx.IndRefForNewObject(dict)
	if err != nil {
		return nil, err
	}
	d.ctx.Info = ir
	return dict, nil
}
