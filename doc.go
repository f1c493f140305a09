// Package bookcorpus turns a directory of plain-text books into a cleaned,
// tokenized, sentence-per-line corpus split into fixed-size shard files.
//
// # Quick Start
//
//	p, err := bookcorpus.New(bookcorpus.WithWorkers(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats, err := p.Run(ctx, "out_txts", "out_shards")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d sentences in %d shards\n", stats.Sentences, len(stats.Shards))
//
// # Pipeline
//
// Every input file is handled by one worker: its lines are grouped into
// paragraphs and split into sentences (package segment), each sentence is
// normalized (package normalize), tokenized and filtered (package filter).
// Accepted sentences of a file are sent as one batch to a single writer
// that appends them to the active shard and starts a new shard every
// shard-size lines.
//
// Sentence order within a file is preserved. The order of files in the
// output depends on which worker finishes first, unless the pipeline runs
// with one worker.
//
// # Errors
//
// A file that cannot be read is logged and skipped (ErrInputRead). Any
// output failure stops the run (ErrWrite). Bad settings are reported by New
// and Run before any work starts (ErrInvalidConfig).
package bookcorpus
