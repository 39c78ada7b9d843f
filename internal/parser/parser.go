// ============================================================================
// Drone Dispatch Problem Parser
// ============================================================================
//
// Package: internal/parser
// File: parser.go
// Purpose: Reads a problem file into an immutable types.Problem
//
// File Format (one record per line, whitespace separated integers):
//   rows cols drones turns payload
//   P                                  # number of product types
//   w0 w1 ... w(P-1)                   # product weights
//   W                                  # number of warehouses
//   x y                                # warehouse position   } repeated
//   s0 s1 ... s(P-1)                   # stock per product    } W times
//   O                                  # number of orders
//   x y                                # order position       }
//   n                                  # number of items      } repeated
//   p0 p1 ... p(n-1)                   # product id per item  } O times
//
// Every declared count is checked against the data actually read. Any
// mismatch is a structural error and the whole file is rejected.
//
// ============================================================================

package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChuLiYu/drone-dispatch/pkg/types"
)

// ErrMalformed marks structural problems in the input.
var ErrMalformed = errors.New("malformed problem file")

// ParseFile opens path and parses it.
func ParseFile(path string) (*types.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse problem: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a problem definition from r.
func Parse(r io.Reader) (*types.Problem, error) {
	lr := newLineReader(r)

	header, err := lr.ints("header", 5)
	if err != nil {
		return nil, err
	}
	p := &types.Problem{
		Rows:    header[0],
		Cols:    header[1],
		Drones:  header[2],
		Turns:   header[3],
		Payload: header[4],
	}

	if err := parseProducts(lr, p); err != nil {
		return nil, err
	}
	if err := parseWarehouses(lr, p); err != nil {
		return nil, err
	}
	if err := parseOrders(lr, p); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parse problem: %w", err)
	}
	return p, nil
}

func parseProducts(lr *lineReader, p *types.Problem) error {
	n, err := lr.count("product count")
	if err != nil {
		return err
	}
	weights, err := lr.ints("product weights", n)
	if err != nil {
		return err
	}

	p.Products = make([]types.Product, n)
	for i, w := range weights {
		p.Products[i] = types.Product{ID: i, Weight: w}
	}
	return nil
}

func parseWarehouses(lr *lineReader, p *types.Problem) error {
	n, err := lr.count("warehouse count")
	if err != nil {
		return err
	}

	p.Warehouses = make([]*types.Spot, 0, n)
	for i := 0; i < n; i++ {
		pos, err := lr.point(fmt.Sprintf("warehouse %d position", i))
		if err != nil {
			return err
		}
		stock, err := lr.ints(fmt.Sprintf("warehouse %d stock", i), len(p.Products))
		if err != nil {
			return err
		}

		products := make(map[int]int, len(stock))
		for product, qty := range stock {
			if qty < 0 {
				return lr.errorf("warehouse %d holds negative stock of product %d", i, product)
			}
			products[product] = qty
		}
		p.Warehouses = append(p.Warehouses, types.NewWarehouse(i, pos, products))
	}
	return nil
}

func parseOrders(lr *lineReader, p *types.Problem) error {
	n, err := lr.count("order count")
	if err != nil {
		return err
	}

	p.Orders = make([]*types.Spot, 0, n)
	for i := 0; i < n; i++ {
		pos, err := lr.point(fmt.Sprintf("order %d position", i))
		if err != nil {
			return err
		}
		items, err := lr.count(fmt.Sprintf("order %d item count", i))
		if err != nil {
			return err
		}
		ids, err := lr.ints(fmt.Sprintf("order %d items", i), items)
		if err != nil {
			return err
		}

		demand := make(map[int]int)
		for _, id := range ids {
			if _, ok := p.Product(id); !ok {
				return lr.errorf("order %d references unknown product %d", i, id)
			}
			demand[id]++
		}
		p.Orders = append(p.Orders, types.NewOrder(i, pos, demand))
	}
	return nil
}

// ============================================================================
// Line reader
// ============================================================================

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &lineReader{sc: sc}
}

func (lr *lineReader) errorf(format string, args ...any) error {
	return fmt.Errorf("parse problem: line %d: %w: %s", lr.line, ErrMalformed, fmt.Sprintf(format, args...))
}

// next returns the fields of the next non-blank line.
func (lr *lineReader) next(what string) ([]string, error) {
	for lr.sc.Scan() {
		lr.line++
		fields := strings.Fields(lr.sc.Text())
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := lr.sc.Err(); err != nil {
		return nil, fmt.Errorf("parse problem: read %s: %w", what, err)
	}
	return nil, lr.errorf("unexpected end of input, expected %s", what)
}

// ints reads a line that must contain exactly want integers. A declared
// count of zero accepts a missing or blank line.
func (lr *lineReader) ints(what string, want int) ([]int, error) {
	if want == 0 {
		return nil, nil
	}
	fields, err := lr.next(what)
	if err != nil {
		return nil, err
	}
	if len(fields) != want {
		return nil, lr.errorf("%s: declared %d values, read %d", what, want, len(fields))
	}

	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, lr.errorf("%s: %q is not an integer", what, f)
		}
		out[i] = v
	}
	return out, nil
}

func (lr *lineReader) count(what string) (int, error) {
	v, err := lr.ints(what, 1)
	if err != nil {
		return 0, err
	}
	if v[0] < 0 {
		return 0, lr.errorf("%s must not be negative", what)
	}
	return v[0], nil
}

func (lr *lineReader) point(what string) (types.Point, error) {
	v, err := lr.ints(what, 2)
	if err != nil {
		return types.Point{}, err
	}
	return types.Point{X: v[0], Y: v[1]}, nil
}
