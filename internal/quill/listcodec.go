package quill

import "strings"

// Scripts have no composite types: lists, grids and dicts are strings.
//
//	list  a;b;c
//	grid  a;b/c;d    rows split by '/', items by ';'
//	dict  k:v/k2:v2
const (
	itemSep = ";"
	rowSep  = "/"
	pairSep = ":"
)

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, itemSep)
}

func joinList(items []string) string {
	return strings.Join(items, itemSep)
}

func splitGrid(s string) [][]string {
	if s == "" {
		return nil
	}
	rows := strings.Split(s, rowSep)
	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = splitList(row)
	}
	return grid
}

func joinGrid(grid [][]string) string {
	rows := make([]string, len(grid))
	for i, row := range grid {
		rows[i] = joinList(row)
	}
	return strings.Join(rows, rowSep)
}

type dictEntry struct {
	Key, Value string
}

// dict keeps insertion order so a round trip does not reshuffle the string.
type dict []dictEntry

func parseDict(s string) (dict, bool) {
	if s == "" {
		return nil, true
	}
	pairs := strings.Split(s, rowSep)
	d := make(dict, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, pairSep)
		if !ok {
			return nil, false
		}
		d = append(d, dictEntry{Key: k, Value: v})
	}
	return d, true
}

func (d dict) index(key string) int {
	for i, e := range d {
		if e.Key == key {
			return i
		}
	}
	return -1
}

func (d dict) String() string {
	pairs := make([]string, len(d))
	for i, e := range d {
		pairs[i] = e.Key + pairSep + e.Value
	}
	return strings.Join(pairs, rowSep)
}

// EncodeDict renders key/value pairs in script dict encoding, in the given key order.
func EncodeDict(keys []string, values map[string]string) string {
	d := make(dict, 0, len(keys))
	for _, k := range keys {
		d = append(d, dictEntry{Key: k, Value: values[k]})
	}
	return d.String()
}
