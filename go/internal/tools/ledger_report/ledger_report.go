package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reckman-cloud/employee-admin-app/go/internal/dbconfig"
)

// Summary is one row of the daily report.
type Summary struct {
	Day          time.Time
	EnvelopeType string
	Accepted     int64
	Failed       int64
}

func main() {
	days := flag.Int("days", 7, "how many days back to report")
	dsn := flag.String("dsn", "", "database URL (defaults to DB_* env)")
	flag.Parse()

	// 1) Connect using shared dbconfig
	if *dsn == "" {
		cfg, ok := dbconfig.FromEnv()
		if !ok {
			fmt.Fprintln(os.Stderr, "no database configured: set DB_HOST or pass -dsn")
			os.Exit(1)
		}
		*dsn = cfg.DSN()
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, *dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 2) Aggregate per day and envelope type
	rows, err := pool.Query(ctx, `
            SELECT date_trunc('day', submitted_at) AS day,
                   envelope_type,
                   count(*) FILTER (WHERE accepted)     AS accepted,
                   count(*) FILTER (WHERE NOT accepted) AS failed
            FROM submission_ledger
            WHERE submitted_at >= now() - make_interval(days => $1)
            GROUP BY 1, 2
            ORDER BY 1 DESC, 2
        `, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query ledger: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	var (
		summaries     []Summary
		totalAccepted int64
		totalFailed   int64
	)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Day, &s.EnvelopeType, &s.Accepted, &s.Failed); err != nil {
			fmt.Fprintf(os.Stderr, "scan row: %v\n", err)
			os.Exit(1)
		}
		summaries = append(summaries, s)
		totalAccepted += s.Accepted
		totalFailed += s.Failed
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read rows: %v\n", err)
		os.Exit(1)
	}

	// 3) Print summary
	for _, s := range summaries {
		fmt.Printf("%s  %-28s accepted %4d  failed %4d\n",
			s.Day.Format(time.DateOnly), s.EnvelopeType, s.Accepted, s.Failed)
	}
	fmt.Printf(
		"Ledger report complete: %d days, %d accepted, %d failed\n",
		*days, totalAccepted, totalFailed,
	)
}
