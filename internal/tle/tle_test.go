package tle

import (
	"io"
	"log/slog"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const (
	issTLE = "ISS (ZARYA)\n" +
		"1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927\n" +
		"2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537\n"
	starlinkTLE = "STARLINK-1007\n" +
		"1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995\n" +
		"2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05\n"
)
