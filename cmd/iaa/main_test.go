package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/iaa/internal/model"
)

const wideCSV = "a,b,c\n" +
	"A,A,A\n" +
	"A,A,B\n" +
	"B,B,B\n" +
	"B,A,B\n"

func writeInput(t *testing.T, data string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "labels.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReportCommand(t *testing.T) {
	path := writeInput(t, wideCSV)
	out, err := run(t, "report", "--file", path, "--metric", "nominal")
	require.NoError(t, err)
	assert.Contains(t, out, "Items: 4  Annotators: 3  Categories: 2  Metric: nominal")
	assert.Contains(t, out, "Fleiss' kappa")
	assert.Contains(t, out, "0.3333")
	assert.Contains(t, out, "0.4000")
	assert.Contains(t, out, "0.3889")
}

func TestRootRunsReport(t *testing.T) {
	path := writeInput(t, wideCSV)
	out, err := run(t, "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Metric: interval")
}

func TestCohenCommandPair(t *testing.T) {
	path := writeInput(t, wideCSV)
	out, err := run(t, "cohen", "--file", path, "--pair", "b,3")
	require.NoError(t, err)
	// b A A B A vs c A B B B: P_o = 0.5, P_e = 0.375
	assert.Contains(t, out, "Cohen's kappa (b, c): 0.2000")
	assert.Contains(t, out, "observed: 0.5000")
	assert.Contains(t, out, "expected: 0.3750")

	_, err = run(t, "cohen", "--file", path, "--pair", "a")
	assert.Error(t, err)
	_, err = run(t, "cohen", "--file", path, "--pair", "a,zed")
	assert.Error(t, err)
}

func TestSingleCoefficientCommands(t *testing.T) {
	path := writeInput(t, wideCSV)

	out, err := run(t, "fleiss", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Fleiss' kappa: 0.3333")

	out, err = run(t, "light", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Light's kappa: 0.4000")

	out, err = run(t, "alpha", "--file", path, "--metric", "ordinal")
	require.NoError(t, err)
	assert.Contains(t, out, "Krippendorff's alpha (ordinal): 0.3889")
}

func TestVerboseShowsTables(t *testing.T) {
	path := writeInput(t, wideCSV)
	out, err := run(t, "fleiss", "--file", path, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Agreement table")
	assert.Contains(t, out, "Fleiss' kappa: 0.3333")
}

func TestVerboseReportKeepsTablesTogether(t *testing.T) {
	path := writeInput(t, wideCSV)
	for i := 0; i < 10; i++ {
		out, err := run(t, "report", "--file", path, "-v")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "Agreement table\n"))
		assert.Equal(t, 4, strings.Count(out, "Contingency table ("))
		assert.Equal(t, 1, strings.Count(out, "Coincidence matrix\n"))
		assert.Contains(t, out, "Summary")
		assert.Contains(t, out, "Pairwise Cohen's kappa")
		assert.Contains(t, out, "Coincidence matrix\n  A B\nA 4 2\nB 2 4\n\n")
	}
}

func TestVerboseLight(t *testing.T) {
	path := writeInput(t, wideCSV)
	out, err := run(t, "light", "--file", path, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Contingency table (a × b)")
	assert.Contains(t, out, "Contingency table (a × c)")
	assert.Contains(t, out, "Contingency table (b × c)")
	assert.Contains(t, out, "Pairwise Cohen's kappa")
	assert.Contains(t, out, "Light's kappa: 0.4000")
}

func TestConfigFileSetsMetric(t *testing.T) {
	path := writeInput(t, wideCSV)
	cfgPath := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "iaa", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("[compute]\nmetric = \"ratio\"\n"), 0o644))

	out, err := run(t, "alpha", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(ratio)")

	out, err = run(t, "alpha", "--file", path, "--metric", "nominal")
	require.NoError(t, err)
	assert.Contains(t, out, "(nominal)")
}

func TestConfigFileSetsDBColumns(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "labels.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE coding (unit TEXT, coder TEXT, code TEXT)`,
		`INSERT INTO coding VALUES
			('u1','ann','A'), ('u2','ann','A'), ('u3','ann','B'), ('u4','ann','B'),
			('u1','bob','A'), ('u2','bob','A'), ('u3','bob','B'), ('u4','bob','A')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	cfgPath := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "iaa", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	cfg := "[input]\ntable = \"coding\"\nitem-column = \"unit\"\nannotator-column = \"coder\"\nlabel-column = \"code\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := run(t, "cohen", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Cohen's kappa (ann, bob): 0.5000")
}

func TestMissingInput(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err := run(t, "report")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "--file or --db"))
}

func TestResolveAnnotator(t *testing.T) {
	names := []string{"ann", "bob", "2"}
	cases := []struct {
		ref  string
		want int
		ok   bool
	}{
		{ref: "bob", want: 1, ok: true},
		{ref: " ann ", want: 0, ok: true},
		{ref: "2", want: 2, ok: true},
		{ref: "1", want: 0, ok: true},
		{ref: "0", ok: false},
		{ref: "4", ok: false},
		{ref: "cy", ok: false},
	}
	for _, tc := range cases {
		got, err := resolveAnnotator(names, tc.ref)
		if !tc.ok {
			assert.Error(t, err, tc.ref)
			continue
		}
		require.NoError(t, err, tc.ref)
		assert.Equal(t, tc.want, got, tc.ref)
	}
}

func TestValidateConfig(t *testing.T) {
	base := model.Config{Metric: "interval"}
	in := model.InputConfig{File: "x.csv", Delimiter: ","}
	require.NoError(t, validateConfig(base, in))

	both := in
	both.DB = "x.db"
	assert.Error(t, validateConfig(base, both))

	badMetric := base
	badMetric.Metric = "cosine"
	assert.Error(t, validateConfig(badMetric, in))

	negCycle := base
	negCycle.Cycle = -1
	assert.Error(t, validateConfig(negCycle, in))

	orders := base
	orders.CategoryOrder = []string{"a"}
	orders.OrderFile = "scale.txt"
	assert.Error(t, validateConfig(orders, in))

	wideDelim := in
	wideDelim.Delimiter = ";;"
	assert.Error(t, validateConfig(base, wideDelim))
}
