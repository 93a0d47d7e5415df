package decl

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"

	"github.com/sghaida/bundlegen/internal/tag"
)

// ParseFile parses one Go source file and returns its top-level declarations.
//
// src follows go/parser.ParseFile: nil reads filename from disk. Methods are
// returned as KindMethod declarations keyed by their receiver base type.
func ParseFile(fset *token.FileSet, pkg *Package, filename string, src any) ([]*Decl, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	if pkg != nil && pkg.Name == "" {
		pkg.Name = f.Name.Name
	}
	return FromFile(fset, pkg, f), nil
}

// FromFile extracts declarations from an already parsed file.
func FromFile(fset *token.FileSet, pkg *Package, f *ast.File) []*Decl {
	imports := fileImports(f)

	var out []*Decl
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && !d.Lparen.IsValid() {
					doc = d.Doc
				}
				out = append(out, fromTypeSpec(fset, pkg, imports, ts, doc))
			}
		case *ast.FuncDecl:
			out = append(out, fromFuncDecl(fset, pkg, imports, d))
		}
	}
	return out
}

func fromTypeSpec(fset *token.FileSet, pkg *Package, imports []Import, ts *ast.TypeSpec, doc *ast.CommentGroup) *Decl {
	d := &Decl{
		Name:    ts.Name.Name,
		Kind:    KindNamed,
		Package: pkg,
		Pos:     fset.Position(ts.Name.Pos()),
		Imports: imports,
		Generic: ts.TypeParams != nil && len(ts.TypeParams.List) > 0,
	}
	d.Tags, d.TagErrs = tag.ParseAll(commentLines(doc))

	if ts.Assign.IsValid() {
		return d
	}
	switch t := ts.Type.(type) {
	case *ast.StructType:
		d.Kind = KindStruct
		for _, field := range t.Fields.List {
			if len(field.Names) > 0 {
				continue
			}
			if e, ok := embedOf(field.Type); ok {
				d.Embeds = append(d.Embeds, e)
			}
		}
	case *ast.InterfaceType:
		d.Kind = KindInterface
		for _, field := range t.Methods.List {
			if len(field.Names) == 0 {
				if e, ok := embedOf(field.Type); ok && !e.Pointer {
					d.Embeds = append(d.Embeds, e)
				}
				continue
			}
			ft, ok := field.Type.(*ast.FuncType)
			if !ok {
				continue
			}
			sig := signatureOf(ft)
			for _, n := range field.Names {
				d.Methods = append(d.Methods, Method{Name: n.Name, Signature: sig})
			}
		}
	}
	return d
}

func fromFuncDecl(fset *token.FileSet, pkg *Package, imports []Import, fd *ast.FuncDecl) *Decl {
	d := &Decl{
		Name:      fd.Name.Name,
		Kind:      KindFunc,
		Package:   pkg,
		Pos:       fset.Position(fd.Name.Pos()),
		Imports:   imports,
		Generic:   fd.Type.TypeParams != nil && len(fd.Type.TypeParams.List) > 0,
		Signature: signatureOf(fd.Type),
	}
	d.Tags, d.TagErrs = tag.ParseAll(commentLines(fd.Doc))

	if fd.Recv != nil && len(fd.Recv.List) == 1 {
		d.Kind = KindMethod
		recv := fd.Recv.List[0].Type
		if star, ok := recv.(*ast.StarExpr); ok {
			d.PointerReceiver = true
			recv = star.X
		}
		switch r := recv.(type) {
		case *ast.Ident:
			d.Receiver = r.Name
		case *ast.IndexExpr:
			d.Generic = true
			if id, ok := r.X.(*ast.Ident); ok {
				d.Receiver = id.Name
			}
		case *ast.IndexListExpr:
			d.Generic = true
			if id, ok := r.X.(*ast.Ident); ok {
				d.Receiver = id.Name
			}
		}
	}
	return d
}

func signatureOf(ft *ast.FuncType) Signature {
	var sig Signature
	sig.Params, sig.Variadic = paramsOf(ft.Params)
	sig.Results, _ = paramsOf(ft.Results)
	return sig
}

func paramsOf(fl *ast.FieldList) ([]Param, bool) {
	if fl == nil {
		return nil, false
	}
	var (
		out      []Param
		variadic bool
	)
	for i, field := range fl.List {
		typ := field.Type
		if ell, ok := typ.(*ast.Ellipsis); ok && i == len(fl.List)-1 {
			variadic = true
			typ = ell.Elt
		}
		p := Param{Type: types.ExprString(typ), Quals: qualifiers(typ)}
		if len(field.Names) == 0 {
			out = append(out, p)
			continue
		}
		for _, n := range field.Names {
			p.Name = n.Name
			out = append(out, p)
		}
	}
	return out, variadic
}

func qualifiers(expr ast.Expr) []string {
	var out []string
	seen := map[string]bool{}
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			out = append(out, id.Name)
		}
		return false
	})
	return out
}

func embedOf(expr ast.Expr) (Embed, bool) {
	var e Embed
	if star, ok := expr.(*ast.StarExpr); ok {
		e.Pointer = true
		expr = star.X
	}
	switch x := expr.(type) {
	case *ast.IndexExpr:
		expr = x.X
	case *ast.IndexListExpr:
		expr = x.X
	}
	switch x := expr.(type) {
	case *ast.Ident:
		e.Name = x.Name
	case *ast.SelectorExpr:
		id, ok := x.X.(*ast.Ident)
		if !ok {
			return Embed{}, false
		}
		e.Qual = id.Name
		e.Name = x.Sel.Name
	default:
		return Embed{}, false
	}
	return e, true
}

func fileImports(f *ast.File) []Import {
	out := make([]Import, 0, len(f.Imports))
	for _, imp := range f.Imports {
		gi := Import{Path: strings.Trim(imp.Path.Value, `"`)}
		if imp.Name != nil {
			gi.Name = imp.Name.Name
		}
		out = append(out, gi)
	}
	return out
}

// commentLines returns the raw text of each // comment in the group.
// ast.CommentGroup.Text drops directive comments, so it cannot be used here.
func commentLines(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}
	lines := make([]string, 0, len(cg.List))
	for _, c := range cg.List {
		if strings.HasPrefix(c.Text, "//") {
			lines = append(lines, strings.TrimRight(c.Text, " \t\r"))
		}
	}
	return lines
}
