package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ncecere/billing_api/internal/auth"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBucketsPrintsPartition(t *testing.T) {
	out, err := run(t, "", "buckets", "--from", "2024-01-01", "--to", "2024-01-03", "--bucket", "daily")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "# daily", lines[0])
	require.Equal(t, []string{"2024-01-01T00:00:00", "2024-01-02T00:00:00"}, strings.Fields(lines[1]))
	require.Equal(t, []string{"2024-01-02T00:00:00", "2024-01-03T00:00:00"}, strings.Fields(lines[2]))
}

func TestBucketsUnknownSizeFallsBackToDaily(t *testing.T) {
	out, err := run(t, "", "buckets", "--from", "2024-01-01", "--to", "2024-01-02", "--bucket", "hourly")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "# daily"))
}

func TestBucketsRejectsBadDates(t *testing.T) {
	_, err := run(t, "", "buckets", "--from", "soon", "--to", "2024-01-02")
	require.Error(t, err)

	_, err = run(t, "", "buckets", "--from", "2024-01-01")
	require.Error(t, err)
}

func TestHashPasswordFromArgAndStdin(t *testing.T) {
	out, err := run(t, "", "hash-password", "s3cret")
	require.NoError(t, err)
	ok, err := auth.VerifyPassword("s3cret", strings.TrimSpace(out))
	require.NoError(t, err)
	require.True(t, ok)

	out, err = run(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	ok, err = auth.VerifyPassword("from-stdin", strings.TrimSpace(out))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	_, err := run(t, "", "migrate", "sideways")
	require.ErrorContains(t, err, "unknown migration direction")
}
