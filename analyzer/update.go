package analyzer

import (
	"strings"

	"github.com/minio/highwayhash"

	"github.com/termfx/gdtk/cst"
	"github.com/termfx/gdtk/parser"
)

// interfaceHashKey keys the highwayhash used for interface digests.
// Any fixed 32 bytes work; the digest only ever compares to itself.
var interfaceHashKey = []byte("gdtk.interface.digest.v1........")

// InterfaceDigest hashes the externally visible surface of a class:
// its name registration, base type, and member signatures. Two trees
// with equal digests expose the same interface to dependents, so an
// edit that keeps the digest cannot affect other files.
func InterfaceDigest(root *cst.ClassNode) uint64 {
	var sb strings.Builder
	writeClassSurface(&sb, root)
	h, err := highwayhash.New64(interfaceHashKey)
	if err != nil {
		// The key is a compile-time constant of the right size.
		panic(err)
	}
	_, _ = h.Write([]byte(sb.String()))
	return h.Sum64()
}

// writeClassSurface serializes the signature-relevant parts of a
// class, recursively for inner classes.
func writeClassSurface(sb *strings.Builder, class *cst.ClassNode) {
	if class.ClassName != nil && class.ClassName.Name != nil {
		sb.WriteString("class_name " + class.ClassName.Name.Literal + ";")
	}
	if class.Extends != nil {
		sb.WriteString("extends " + class.Extends.Target.Name() + ";")
	}
	for _, m := range class.Members {
		switch member := m.(type) {
		case *cst.VariableNode:
			if member.Name == nil {
				continue
			}
			kw := "var "
			if member.Const {
				kw = "const "
			}
			sb.WriteString(kw + member.Name.Literal + ":" + member.Type.Name() + ";")
		case *cst.MethodNode:
			if member.Name == nil {
				continue
			}
			sb.WriteString("func " + member.Name.Literal + "(")
			if member.Params != nil {
				for _, p := range member.Params.Params {
					if p.Name == nil {
						continue
					}
					sb.WriteString(p.Name.Literal + ":" + p.Type.Name())
					if p.Default != nil {
						sb.WriteString("=?")
					}
					sb.WriteString(",")
				}
			}
			sb.WriteString(")->" + member.ReturnType.Name() + ";")
		case *cst.SignalNode:
			if member.Name != nil {
				sb.WriteString("signal " + member.Name.Literal + ";")
			}
		case *cst.EnumNode:
			if member.Name != nil {
				sb.WriteString("enum " + member.Name.Literal + "{")
			} else {
				sb.WriteString("enum{")
			}
			for _, v := range member.Values {
				if v.Name != nil {
					sb.WriteString(v.Name.Literal + ",")
				}
			}
			sb.WriteString("};")
		case *cst.ClassNode:
			sb.WriteString("class{")
			writeClassSurface(sb, member)
			sb.WriteString("};")
		}
	}
}

// UpdateResult reports what an incremental update decided.
type UpdateResult struct {
	// Affected lists dependent files whose analysis is now stale.
	Affected []string
	// InterfaceChanged is true when the edit altered the class
	// surface, forcing dependents to re-analyze.
	InterfaceChanged bool
	// Result is the file's fresh analysis.
	Result *FileResult
}

// UpdateFile applies an edited source to the semantic state without a
// full project pass. The file itself is always re-analyzed; dependents
// are reported as affected only when the class surface changed. The
// caller schedules the affected files.
func (p *Project) UpdateFile(path, oldText, newText string, cfg Config) *UpdateResult {
	oldRoot, _ := parser.Parse(oldText)
	newRoot, _ := parser.Parse(newText)

	interfaceChanged := InterfaceDigest(oldRoot) != InterfaceDigest(newRoot)

	p.Cache.InvalidatePath(path)
	p.Registry.Register(path, newRoot)

	hash := ContentHash([]byte(newText))
	result := p.validateFile(Source{Path: path, Text: newText}, hash, cfg)
	p.Cache.Put(result)

	update := &UpdateResult{InterfaceChanged: interfaceChanged, Result: result}
	if interfaceChanged {
		update.Affected = p.Graph.Dependents(path)
		for _, dep := range update.Affected {
			p.Cache.InvalidatePath(dep)
		}
	}
	return update
}
