package quill

import "strconv"

func init() {
	RegisterBuiltin("getitem", getItem)
	RegisterBuiltin("setitem", setItem)
	RegisterBuiltin("insert", insertItem)
	RegisterBuiltin("remove", removeItem)
	RegisterBuiltin("append", appendItem)
	RegisterBuiltin("contains", containsItem)
	RegisterBuiltin("length", listLength)
	RegisterBuiltin("getitem2d", getItem2D)
	RegisterBuiltin("setitem2d", setItem2D)
	RegisterBuiltin("getvalue", getValue)
	RegisterBuiltin("setvalue", setValue)
}

func checkIndex(index, length int) *Error {
	if index < 0 || index >= length {
		return Errorf(OutOfBounds, "index %d out of range [0, %d)", index, length)
	}
	return nil
}

// getitem list, index[, out]
func getItem(c *Call) Result {
	if err := c.argCount("getitem", 2, 3); err != nil {
		return Result{Err: err}
	}
	index, err := c.intArg(1, "index")
	if err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(2)
	if err != nil {
		return Result{Err: err}
	}
	items := splitList(c.Args[0])
	if err := checkIndex(index, len(items)); err != nil {
		return Result{Err: err}
	}
	return output(out, items[index])
}

// setitem var, index, value
func setItem(c *Call) Result {
	if err := c.argCount("setitem", 3, 3); err != nil {
		return Result{Err: err}
	}
	name, list, err := c.variable(0)
	if err != nil {
		return Result{Err: err}
	}
	index, err := c.intArg(1, "index")
	if err != nil {
		return Result{Err: err}
	}
	items := splitList(list)
	if err := checkIndex(index, len(items)); err != nil {
		return Result{Err: err}
	}
	items[index] = c.Args[2]
	return output(name, joinList(items))
}

// insert var, index, value. index may equal the length to append.
func insertItem(c *Call) Result {
	if err := c.argCount("insert", 3, 3); err != nil {
		return Result{Err: err}
	}
	name, list, err := c.variable(0)
	if err != nil {
		return Result{Err: err}
	}
	index, err := c.intArg(1, "index")
	if err != nil {
		return Result{Err: err}
	}
	items := splitList(list)
	if err := checkIndex(index, len(items)+1); err != nil {
		return Result{Err: err}
	}
	items = append(items, "")
	copy(items[index+1:], items[index:])
	items[index] = c.Args[2]
	return output(name, joinList(items))
}

// remove var, index
func removeItem(c *Call) Result {
	if err := c.argCount("remove", 2, 2); err != nil {
		return Result{Err: err}
	}
	name, list, err := c.variable(0)
	if err != nil {
		return Result{Err: err}
	}
	index, err := c.intArg(1, "index")
	if err != nil {
		return Result{Err: err}
	}
	items := splitList(list)
	if err := checkIndex(index, len(items)); err != nil {
		return Result{Err: err}
	}
	items = append(items[:index], items[index+1:]...)
	return output(name, joinList(items))
}

// append var, value
func appendItem(c *Call) Result {
	if err := c.argCount("append", 2, 2); err != nil {
		return Result{Err: err}
	}
	name, list, err := c.variable(0)
	if err != nil {
		return Result{Err: err}
	}
	return output(name, joinList(append(splitList(list), c.Args[1])))
}

// contains list, value[, out]
func containsItem(c *Call) Result {
	if err := c.argCount("contains", 2, 3); err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(2)
	if err != nil {
		return Result{Err: err}
	}
	found := false
	for _, item := range splitList(c.Args[0]) {
		if item == c.Args[1] {
			found = true
			break
		}
	}
	return output(out, strconv.FormatBool(found))
}

// length list[, out]
func listLength(c *Call) Result {
	if err := c.argCount("length", 1, 2); err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(1)
	if err != nil {
		return Result{Err: err}
	}
	return output(out, strconv.Itoa(len(splitList(c.Args[0]))))
}

func gridCell(grid [][]string, x, y int) *Error {
	if y < 0 || y >= len(grid) {
		return Errorf(OutOfBounds, "row %d out of range [0, %d)", y, len(grid))
	}
	if x < 0 || x >= len(grid[y]) {
		return Errorf(OutOfBounds, "column %d out of range [0, %d) in row %d", x, len(grid[y]), y)
	}
	return nil
}

func (c *Call) gridPos(xi, yi int) (int, int, *Error) {
	x, err := c.intArg(xi, "x")
	if err != nil {
		return 0, 0, err
	}
	y, err := c.intArg(yi, "y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// getitem2d grid, x, y[, out]
func getItem2D(c *Call) Result {
	if err := c.argCount("getitem2d", 3, 4); err != nil {
		return Result{Err: err}
	}
	x, y, err := c.gridPos(1, 2)
	if err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(3)
	if err != nil {
		return Result{Err: err}
	}
	grid := splitGrid(c.Args[0])
	if err := gridCell(grid, x, y); err != nil {
		return Result{Err: err}
	}
	return output(out, grid[y][x])
}

// setitem2d var, x, y, value
func setItem2D(c *Call) Result {
	if err := c.argCount("setitem2d", 4, 4); err != nil {
		return Result{Err: err}
	}
	name, value, err := c.variable(0)
	if err != nil {
		return Result{Err: err}
	}
	x, y, err := c.gridPos(1, 2)
	if err != nil {
		return Result{Err: err}
	}
	grid := splitGrid(value)
	if err := gridCell(grid, x, y); err != nil {
		return Result{Err: err}
	}
	grid[y][x] = c.Args[3]
	return output(name, joinGrid(grid))
}

// getvalue dict, key[, out]
func getValue(c *Call) Result {
	if err := c.argCount("getvalue", 2, 3); err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(2)
	if err != nil {
		return Result{Err: err}
	}
	d, valid := parseDict(c.Args[0])
	if !valid {
		return fail(TypeError, "%q is not a dict", c.Args[0])
	}
	i := d.index(c.Args[1])
	if i < 0 {
		return fail(KeyNotFound, "key %q not found", c.Args[1])
	}
	return output(out, d[i].Value)
}

// setvalue var, key, value. The key must already exist.
func setValue(c *Call) Result {
	if err := c.argCount("setvalue", 3, 3); err != nil {
		return Result{Err: err}
	}
	name, value, err := c.variable(0)
	if err != nil {
		return Result{Err: err}
	}
	d, valid := parseDict(value)
	if !valid {
		return fail(TypeError, "variable %q is not a dict", name)
	}
	i := d.index(c.Args[1])
	if i < 0 {
		return fail(KeyNotFound, "key %q not found", c.Args[1])
	}
	d[i].Value = c.Args[2]
	return output(name, d.String())
}
