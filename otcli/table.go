package main

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/npillmayer/truetype/ot"
	"github.com/npillmayer/truetype/otquery"
	"github.com/pterm/pterm"
)

func tablesOp(intp *Intp, op *Op) (error, bool) {
	otf := intp.tf.Font()
	data := [][]string{
		{"Tag", "Offset", "Length", "Interpreted"},
	}
	for _, tag := range otf.TableTags() {
		e := otf.Directory[tag]
		data = append(data, []string{
			tag.String(),
			fmt.Sprintf("%d", e.Offset),
			fmt.Sprintf("%d", e.Length),
			fmt.Sprintf("%v", isInterpreted(tag)),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil, false
}

func isInterpreted(tag ot.Tag) bool {
	switch tag.String() {
	case "cmap", "glyf", "head", "hhea", "hmtx", "loca", "maxp":
		return true
	}
	return false
}

func tableOp(intp *Intp, op *Op) (error, bool) {
	tag, ok := op.hasArg()
	if !ok {
		return errors.New("table: tag missing"), false
	}
	otf := intp.tf.Font()
	table := otf.Table(ot.T(tag))
	if table == nil {
		return errors.New("table not found in font"), false
	}
	offset, size := table.Extent()
	pterm.Printf("table %s at offset %d, %d bytes\n", tag, offset, size)
	var view any
	switch tag {
	case "head":
		if info, ok := otquery.HeadInfo(otf); ok {
			view = info
		}
	case "maxp":
		if info, ok := otquery.MaxPInfo(otf); ok {
			view = info
		}
	case "hhea":
		view = *otf.HHea
	case "cmap":
		printCMap(otf.CMap)
		return nil, false
	}
	if view != nil {
		printStruct(view)
	}
	return nil, false
}

// printStruct prints the exported fields of a struct value as a table.
func printStruct(v any) {
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	data := [][]string{{"Field", "Value"}}
	for i := range rt.NumField() {
		if !rt.Field(i).IsExported() || rt.Field(i).Anonymous {
			continue
		}
		data = append(data, []string{rt.Field(i).Name, fmt.Sprintf("%v", rv.Field(i).Interface())})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printCMap(cmap *ot.CMapTable) {
	data := [][]string{{"Platform", "Encoding", "Status"}}
	for _, rec := range cmap.Records {
		status := "usable"
		if rec.Err != nil {
			status = rec.Err.Error()
		} else if rec.Map == cmap.GlyphIndexMap {
			status = "selected"
		}
		data = append(data, []string{
			fmt.Sprintf("%d", rec.PlatformID),
			fmt.Sprintf("%d", rec.EncodingID),
			status,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if cm := cmap.GlyphIndexMap; cm != nil {
		pterm.Printf("selected map has %d segments\n", cm.SegmentCount())
	}
}
