// Copyright © 2024 The pathoscope Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"github.com/pathoscope-go/pathoscope/pathoscope/cmd/reassign"
	"github.com/shenwei356/util/cliutil"
	"github.com/spf13/cobra"
)

func addIngestFlags(c *cobra.Command) {
	d := reassign.DefaultIngestOptions()

	c.Flags().IntP("line-chunk-size", "", d.ChunkSize,
		formatFlagUsage(`Number of lines to process for each thread, and 4 threads is fast enough.`))
	c.Flags().Float64P("min-weight", "w", d.MinWeight,
		formatFlagUsage(`Minimal weight of an alignment, lower ones are discarded. range: [0, 1]`))
	c.Flags().Float64P("weight-scale", "", d.Weight.Scale,
		formatFlagUsage(`Steepness of the weight of a SAM alignment: exp(scale * (AS / (bonus * length) - 1)).`))
	c.Flags().Float64P("match-bonus", "", d.Weight.MatchBonus,
		formatFlagUsage(`Alignment score of a matched base, used to normalize AS:i of SAM alignments.`))
}

func addAnalysisFlags(c *cobra.Command) {
	d := reassign.DefaultOptions()

	addIngestFlags(c)

	c.Flags().StringP("config", "c", "",
		formatFlagUsage(`YAML file of analysis parameters. Flags given explicitly override it.`))

	c.Flags().IntP("max-iter", "", d.EM.MaxIterations,
		formatFlagUsage(`Maximal number of EM iterations.`))
	c.Flags().Float64P("tolerance", "", d.EM.Tolerance,
		formatFlagUsage(`EM stops when the L1 change of abundances is below this value.`))
	c.Flags().Float64P("abundance-prior", "", d.EM.AbundancePrior,
		formatFlagUsage(`Pseudo-count added to every reference in the M-step.`))
	c.Flags().Float64P("read-prior", "", d.EM.ReadPrior,
		formatFlagUsage(`Pseudo-count added to every candidate of an ambiguous read in the E-step.`))
	c.Flags().Float64P("init-pseudo-count", "", d.EM.InitPseudoCount,
		formatFlagUsage(`Pseudo-count of unique reads per reference for the initial abundances.`))

	c.Flags().Float64P("high-tier", "", d.Tiers.High,
		formatFlagUsage(`Minimal best-hit probability of a high-confidence read.`))
	c.Flags().Float64P("medium-tier", "", d.Tiers.Medium,
		formatFlagUsage(`Minimal best-hit probability of a medium-confidence read.`))

	c.Flags().Float64P("rewrite-cutoff", "", d.RewriteCutoff,
		formatFlagUsage(`Minimal posterior probability of an ambiguous alignment to be kept.`))

	c.Flags().IntP("max-points", "", d.Compress.MaxPoints,
		formatFlagUsage(`Coverage profiles with more change points are simplified.`))
	c.Flags().Float64P("simplify-ratio", "", d.Compress.Ratio,
		formatFlagUsage(`Proportion of change points kept by simplification.`))

	c.Flags().BoolP("skip-missing-lengths", "", false,
		formatFlagUsage(`Omit references without a length from the report, instead of failing.`))

	c.Flags().DurationP("timeout", "", 0,
		formatFlagUsage(`Abandon a sample when its analysis takes longer, 0 for no limit.`))
}

func getIngestOptions(cmd *cobra.Command, opt *Options, base reassign.IngestOptions) reassign.IngestOptions {
	base.Threads = opt.NumCPUs
	base.ChunkSize = cliutil.GetFlagPositiveInt(cmd, "line-chunk-size")

	flags := cmd.Flags()
	if flags.Changed("min-weight") {
		base.MinWeight = getFlagProbability(cmd, "min-weight")
	}
	if flags.Changed("weight-scale") {
		base.Weight.Scale = cliutil.GetFlagPositiveFloat64(cmd, "weight-scale")
	}
	if flags.Changed("match-bonus") {
		base.Weight.MatchBonus = cliutil.GetFlagPositiveFloat64(cmd, "match-bonus")
	}
	return base
}

// getAnalysisOptions reads the config file, if given, and then the flags
// changed on the command line.
func getAnalysisOptions(cmd *cobra.Command, opt *Options) reassign.Options {
	o := reassign.DefaultOptions()

	var err error
	if file := cliutil.GetFlagString(cmd, "config"); file != "" {
		o, err = reassign.LoadOptions(file)
		checkError(err)
	}

	o.Ingest = getIngestOptions(cmd, opt, o.Ingest)

	flags := cmd.Flags()
	if flags.Changed("max-iter") {
		o.EM.MaxIterations = cliutil.GetFlagNonNegativeInt(cmd, "max-iter")
	}
	if flags.Changed("tolerance") {
		o.EM.Tolerance = cliutil.GetFlagNonNegativeFloat64(cmd, "tolerance")
	}
	if flags.Changed("abundance-prior") {
		o.EM.AbundancePrior = cliutil.GetFlagNonNegativeFloat64(cmd, "abundance-prior")
	}
	if flags.Changed("read-prior") {
		o.EM.ReadPrior = cliutil.GetFlagNonNegativeFloat64(cmd, "read-prior")
	}
	if flags.Changed("init-pseudo-count") {
		o.EM.InitPseudoCount = cliutil.GetFlagNonNegativeFloat64(cmd, "init-pseudo-count")
	}
	if flags.Changed("high-tier") {
		o.Tiers.High = getFlagProbability(cmd, "high-tier")
	}
	if flags.Changed("medium-tier") {
		o.Tiers.Medium = getFlagProbability(cmd, "medium-tier")
	}
	if flags.Changed("rewrite-cutoff") {
		o.RewriteCutoff = getFlagProbability(cmd, "rewrite-cutoff")
	}
	if flags.Changed("max-points") {
		o.Compress.MaxPoints = cliutil.GetFlagNonNegativeInt(cmd, "max-points")
	}
	if flags.Changed("simplify-ratio") {
		o.Compress.Ratio = cliutil.GetFlagPositiveFloat64(cmd, "simplify-ratio")
	}
	if flags.Changed("skip-missing-lengths") {
		o.SkipMissingLengths = cliutil.GetFlagBool(cmd, "skip-missing-lengths")
	}

	checkError(o.Check())
	return o
}

func logAnalysisOptions(o reassign.Options) {
	log.Infof("-------------------- [main parameters] --------------------")
	log.Infof("minimal alignment weight: %v", o.Ingest.MinWeight)
	log.Infof("EM: max iterations: %d, tolerance: %g", o.EM.MaxIterations, o.EM.Tolerance)
	if o.EM.AbundancePrior > 0 || o.EM.ReadPrior > 0 {
		log.Infof("EM priors: abundance: %v, read: %v", o.EM.AbundancePrior, o.EM.ReadPrior)
	}
	log.Infof("confidence tiers: high >= %v, medium >= %v", o.Tiers.High, o.Tiers.Medium)
	log.Infof("rewrite cutoff: %v", o.RewriteCutoff)
	log.Infof("-------------------- [main parameters] --------------------")
}
