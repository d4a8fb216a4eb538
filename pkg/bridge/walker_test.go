package bridge

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/argdump/pkg/errors"
	"github.com/matzehuels/argdump/pkg/grammar"
	"github.com/matzehuels/argdump/pkg/value"
)

var actionOpts = cmp.Options{
	cmp.Comparer(value.Equal),
	cmpopts.IgnoreFields(grammar.Action{}, "Converter"),
	cmpopts.EquateEmpty(),
}

func TestWalkBuiltTree(t *testing.T) {
	p := gitParser()
	p.Description = "the stupid content tracker"
	p.Epilog = "see git help"
	b, _ := quietBuilder()
	prog, err := b.Build(p)
	require.NoError(t, err)

	got, err := Walk(prog.Root)
	require.NoError(t, err)
	assert.Equal(t, "git", got.Prog)
	assert.Equal(t, p.Description, got.Description)
	assert.Equal(t, p.Epilog, got.Epilog)
	if diff := cmp.Diff(p.Lookup("git_dir"), got.Lookup("git_dir"), actionOpts); diff != "" {
		t.Errorf("git_dir mismatch (-want +got):\n%s", diff)
	}

	sp := got.SubparsersAction()
	require.NotNil(t, sp)
	assert.Equal(t, "command", sp.Subparsers.Dest)
	assert.True(t, sp.Subparsers.Required)
	assert.ElementsMatch(t, []string{"checkout", "co", "ch", "status"}, sp.Subparsers.Names())

	cmds := sp.Subparsers.Canonical()
	require.Len(t, cmds, 2)
	assert.Equal(t, "checkout", cmds[0].Name)
	assert.ElementsMatch(t, []string{"co", "ch"}, cmds[0].Aliases)
	assert.Equal(t, "git checkout", cmds[0].Parser.Prog)
	branch := cmds[0].Parser.Lookup("branch")
	require.NotNil(t, branch)
	assert.True(t, branch.IsPositional())

	status := cmds[1].Parser
	if diff := cmp.Diff(p.SubparsersAction().Subparsers.Choices[3].Parser.Lookup("short"), status.Lookup("short"), actionOpts); diff != "" {
		t.Errorf("short mismatch (-want +got):\n%s", diff)
	}

	// The walked grammar is itself encodable.
	_, err = grammar.EncodeDocument(got, false)
	require.NoError(t, err)
}

func TestWalkBooleanOptional(t *testing.T) {
	p := grammar.NewParser("tool")
	color := p.Add(grammar.Option("", "--color"))
	color.Kind = grammar.KindBooleanOptional
	prog, err := NewBuilder().Build(p)
	require.NoError(t, err)

	got, err := Walk(prog.Root)
	require.NoError(t, err)
	require.NotNil(t, got.Lookup("color"))
	assert.Equal(t, grammar.KindBooleanOptional, got.Lookup("color").Kind)
	assert.Len(t, got.Actions, 2)
}

func foreignTree() *cobra.Command {
	root := &cobra.Command{Use: "app", Short: "An app", Run: func(*cobra.Command, []string) {}}
	root.Flags().StringP("name", "n", "x", "name to use")
	root.Flags().Int("count", 3, "how many")
	root.Flags().BoolP("verbose", "v", false, "chatty output")
	root.Flags().StringSlice("tags", []string{"a", "b"}, "tags")
	root.Flags().Duration("retry", time.Second, "retry delay")
	root.Flags().StringArray("env", nil, "environment")
	root.Flags().CountP("debug", "d", "debug level")
	root.Flags().Bool("json", false, "")
	root.Flags().Bool("yaml", false, "")
	root.Flags().String("token", "", "api token")
	root.Flags().String("mode", "", "mode")
	root.Flags().Lookup("mode").NoOptDefVal = "auto"
	_ = root.MarkFlagRequired("token")
	_ = root.Flags().MarkHidden("count")
	root.MarkFlagsMutuallyExclusive("json", "yaml")
	root.MarkFlagsOneRequired("json", "yaml")

	serve := &cobra.Command{Use: "serve <addr> [port]", Aliases: []string{"s"}, Run: func(*cobra.Command, []string) {}}
	serve.Flags().Bool("tls", false, "enable tls")
	root.AddCommand(serve)
	return root
}

func TestWalkForeignTree(t *testing.T) {
	got, err := Walk(foreignTree())
	require.NoError(t, err)
	assert.Equal(t, "app", got.Prog)
	assert.Equal(t, "An app", got.Description)

	tests := []struct {
		dest    string
		opts    []string
		kind    grammar.ActionKind
		def     *value.Value
		typ     string
		help    string
		require bool
	}{
		{"name", []string{"-n", "--name"}, grammar.KindStore, value.String("x"), "", "name to use", false},
		{"count", []string{"--count"}, grammar.KindStore, value.Int(3), "int", value.SuppressString, false},
		{"verbose", []string{"-v", "--verbose"}, grammar.KindStoreTrue, value.Bool(false), "", "chatty output", false},
		{"tags", []string{"--tags"}, grammar.KindExtend, value.Seq(value.String("a"), value.String("b")), "", "tags", false},
		{"retry", []string{"--retry"}, grammar.KindStore, value.String("1s"), "duration", "retry delay", false},
		{"env", []string{"--env"}, grammar.KindAppend, nil, "", "environment", false},
		{"debug", []string{"-d", "--debug"}, grammar.KindCount, nil, "", "debug level", false},
		{"token", []string{"--token"}, grammar.KindStore, nil, "", "api token", true},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			a := got.Lookup(tt.dest)
			require.NotNil(t, a)
			assert.Equal(t, tt.opts, a.OptionStrings)
			assert.Equal(t, tt.kind, a.Kind)
			assert.True(t, value.Equal(tt.def, a.Default), "default %s", a.Default)
			assert.Equal(t, tt.help, a.Help)
			assert.Equal(t, tt.require, a.Required)
			if tt.typ == "" {
				assert.Nil(t, a.Type)
				return
			}
			require.NotNil(t, a.Type)
			assert.Equal(t, tt.typ, a.Type.Name)
			assert.NotNil(t, a.Converter)
		})
	}

	mode := got.Lookup("mode")
	require.NotNil(t, mode)
	assert.Equal(t, "?", mode.Nargs.Str())
	assert.Equal(t, "auto", mode.Const.Str())

	assert.Equal(t, []grammar.MutexGroup{{Required: true, Dests: []string{"json", "yaml"}}}, got.MutexGroups)

	sp := got.SubparsersAction()
	require.NotNil(t, sp)
	assert.Equal(t, "command", sp.Subparsers.Dest)
	assert.False(t, sp.Subparsers.Required)
	assert.Equal(t, []string{"serve", "s"}, sp.Subparsers.Names())
	serve, _ := sp.Subparsers.Lookup("s")
	assert.Equal(t, "app serve", serve.Prog)
	require.Len(t, serve.Positionals(), 2)
	assert.Equal(t, "addr", serve.Positionals()[0].Dest)
	assert.True(t, serve.Positionals()[0].Required)
	assert.Equal(t, "?", serve.Positionals()[1].Nargs.Str())

	data, err := grammar.EncodeDocument(got, false)
	require.NoError(t, err)
	back, err := grammar.DecodeDocument(data, false)
	require.NoError(t, err)
	assert.Equal(t, len(got.Actions), len(back.Actions))
}

func TestWalkReplaysForeignTree(t *testing.T) {
	p, err := Walk(foreignTree())
	require.NoError(t, err)
	ns, err := Parse(p, []string{"--token", "t", "--json", "-v", "-n", "y", "--count", "7", "--retry", "2s", "serve", "0.0.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "y", ns["name"])
	assert.Equal(t, 7, ns["count"])
	assert.Equal(t, true, ns["verbose"])
	assert.Equal(t, 2*time.Second, ns["retry"])
	assert.Equal(t, "serve", ns["command"])
	assert.Equal(t, "0.0.0.0", ns["addr"])
	assert.Nil(t, ns["port"])
}

func TestWalkDepthLimit(t *testing.T) {
	root := &cobra.Command{Use: "a"}
	b := &cobra.Command{Use: "b"}
	c := &cobra.Command{Use: "c", Run: func(*cobra.Command, []string) {}}
	b.AddCommand(c)
	root.AddCommand(b)

	w := NewWalker()
	w.MaxDepth = 1
	_, err := w.Walk(root)
	assert.True(t, errors.Is(err, errors.ErrCodeDepthExceeded))

	w.MaxDepth = 2
	_, err = w.Walk(root)
	assert.NoError(t, err)

	_, err = w.Walk(nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidGrammar))
}

func TestPositionalsFromUse(t *testing.T) {
	tests := []struct {
		use   string
		dests []string
		nargs []string
	}{
		{"cp <src> <src> <dst>", []string{"src", "dst"}, []string{"2", "None"}},
		{"run [flags] <cmd> [files...]", []string{"cmd", "files"}, []string{"None", "*"}},
		{"tar FILE...", []string{"file"}, []string{"+"}},
		{"push <ref...> [remote]", []string{"ref", "remote"}, []string{"+", "?"}},
		{"x --force <a|b>", nil, nil},
		{"bare", nil, nil},
	}
	for _, tt := range tests {
		got := positionalsFromUse(tt.use)
		var dests, nargs []string
		for _, a := range got {
			dests = append(dests, a.Dest)
			nargs = append(nargs, a.Nargs.String())
		}
		assert.Equal(t, tt.dests, dests, tt.use)
		assert.Equal(t, tt.nargs, nargs, tt.use)
	}
}
