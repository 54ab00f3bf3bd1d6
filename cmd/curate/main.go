// Command curate drives the curation pipeline over shard files and a
// SQLite corpus: consolidate merges raw shards into the canonical
// corpus, score computes the per-document quality signals, and filter
// applies an admission rule set and stores the resulting report.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/Luvata/data-tooling/internal/shard"
	"github.com/Luvata/data-tooling/pkg/curator"
	"github.com/Luvata/data-tooling/pkg/curator/admission"
	"github.com/Luvata/data-tooling/pkg/curator/consolidate"
	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/langconf"
	"github.com/Luvata/data-tooling/pkg/curator/lexicon"
	"github.com/Luvata/data-tooling/pkg/curator/store"
	"github.com/Luvata/data-tooling/pkg/curator/store/sqlite"
)

var (
	appName = "curate"
	logger  *logrus.Entry
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	})

	if err := makeApp().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to error")
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	dbFlag := cli.StringFlag{
		Name:   "db",
		Value:  "corpus.db",
		EnvVar: "CURATE_DB",
		Usage:  "Path to the SQLite corpus database",
	}
	langFlag := cli.StringFlag{
		Name:   "lang-config",
		EnvVar: "CURATE_LANG_CONFIG",
		Usage:  "Path to the per-language YAML configuration",
	}
	stopwordsFlag := cli.StringFlag{
		Name:   "stopwords",
		EnvVar: "CURATE_STOPWORDS",
		Usage:  "Path to a stopword list (one word per line)",
	}
	flaggedFlag := cli.StringFlag{
		Name:   "flagged-words",
		EnvVar: "CURATE_FLAGGED_WORDS",
		Usage:  "Path to a flagged-word list (one word per line)",
	}
	lengthsFlag := cli.IntSliceFlag{
		Name:  "repetition-length",
		Usage: "N-gram length to precompute the repetition ratio for (repeatable)",
	}

	app := cli.NewApp()
	app.Name = appName
	app.Usage = "corpus curation pipeline"
	app.Commands = []cli.Command{
		{
			Name:      "consolidate",
			Usage:     "merge raw shard files into the canonical corpus",
			ArgsUsage: "SHARD...",
			Flags: []cli.Flag{
				dbFlag,
				cli.BoolFlag{
					Name:  "drop-duplicates",
					Usage: "Keep only the canonical record for each url",
				},
			},
			Action: runConsolidate,
		},
		{
			Name:   "score",
			Usage:  "compute quality signals for every stored document",
			Flags:  []cli.Flag{dbFlag, langFlag, stopwordsFlag, flaggedFlag, lengthsFlag},
			Action: runScore,
		},
		{
			Name:  "filter",
			Usage: "apply an admission rule set and store the report",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:   "rules",
					EnvVar: "CURATE_RULES",
					Usage:  "Path to the rules YAML file",
				},
			}, dbFlag, langFlag, stopwordsFlag, flaggedFlag, lengthsFlag),
			Action: runFilter,
		},
	}
	return app
}

func openStore(appCtx *cli.Context) (store.Store, error) {
	return sqlite.Open(context.Background(), appCtx.String("db"))
}

func runConsolidate(appCtx *cli.Context) error {
	if appCtx.NArg() == 0 {
		return cli.NewExitError("no shard files given", 1)
	}

	var shards [][]corpus.Document
	for _, path := range appCtx.Args() {
		docs, err := shard.ReadFile(path)
		if err != nil {
			return err
		}
		shards = append(shards, docs)
	}

	docs, _, err := consolidate.Consolidate(shards, consolidate.Options{
		DropDuplicates: appCtx.Bool("drop-duplicates"),
	})
	if err != nil {
		return err
	}

	st, err := openStore(appCtx)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	for _, doc := range docs {
		if err := st.PutDoc(ctx, doc); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"shards":  appCtx.NArg(),
		"records": len(docs),
		"db":      appCtx.String("db"),
	}).Info("consolidated")
	return nil
}

func buildCurator(appCtx *cli.Context, st store.Store, rules []admission.Rule) (*curator.Curator, error) {
	var errs *multierror.Error
	if appCtx.String("lang-config") == "" {
		errs = multierror.Append(errs, errors.New("language config has not been specified"))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	cfg, err := langconf.Load(appCtx.String("lang-config"))
	if err != nil {
		return nil, err
	}

	opts := curator.Options{
		Config:            cfg,
		RepetitionLengths: appCtx.IntSlice("repetition-length"),
		Rules:             rules,
		Store:             st,
	}

	if path := appCtx.String("stopwords"); path != "" {
		lex, err := lexicon.LoadWordList("stopwords", path)
		if err != nil {
			return nil, err
		}
		opts.Stopwords = lex
	}
	if path := appCtx.String("flagged-words"); path != "" {
		lex, err := lexicon.LoadWordList("flagged_words", path)
		if err != nil {
			return nil, err
		}
		opts.FlaggedWords = lex
	}

	return curator.New(opts)
}

func loadDocs(ctx context.Context, st store.Store) ([]*corpus.Document, error) {
	stored, err := st.ListDocs(ctx, 0)
	if err != nil {
		return nil, err
	}
	docs := make([]*corpus.Document, len(stored))
	for i := range stored {
		docs[i] = &stored[i]
	}
	return docs, nil
}

func runScore(appCtx *cli.Context) error {
	st, err := openStore(appCtx)
	if err != nil {
		return err
	}
	defer st.Close()

	cur, err := buildCurator(appCtx, st, nil)
	if err != nil {
		return err
	}

	ctx := context.Background()
	docs, err := loadDocs(ctx, st)
	if err != nil {
		return err
	}

	if err := cur.ScoreDocs(ctx, docs); err != nil {
		// Per-document failures: log and keep the documents that scored.
		logger.WithField("err", err).Warn("some documents failed to score")
	}

	for _, doc := range docs {
		if err := st.PutDoc(ctx, *doc); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"docs": len(docs),
		"db":   appCtx.String("db"),
	}).Info("scored")
	return nil
}

func runFilter(appCtx *cli.Context) error {
	rulesPath := appCtx.String("rules")
	if rulesPath == "" {
		return cli.NewExitError("rules file has not been specified", 1)
	}
	rules, err := admission.LoadRules(rulesPath)
	if err != nil {
		return err
	}

	st, err := openStore(appCtx)
	if err != nil {
		return err
	}
	defer st.Close()

	cur, err := buildCurator(appCtx, st, rules)
	if err != nil {
		return err
	}

	ctx := context.Background()
	docs, err := loadDocs(ctx, st)
	if err != nil {
		return err
	}

	report, err := cur.Filter(ctx, docs)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"report":    report.ID,
		"retained":  len(report.Retained),
		"discarded": len(report.Discarded),
		"by_rule":   report.RuleDiscards,
	}).Info("filtered")
	return nil
}
