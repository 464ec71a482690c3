package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"multilabel/pkg"
	"multilabel/pkg/model/decision"
)

func TrainCommand() *cobra.Command {

	var trainFile string
	var devFile string
	var testFile string
	var outputFile string
	var trainingParameters pkg.TrainingParameters

	var cmd = &cobra.Command{
		Use:   "train -i trainData [--dev-file devData] [--test-file testData]",
		Short: "Trains a multi-label classifier online and reports metrics over a sweep of decision settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := pkg.Train(trainFile, devFile, testFile, outputFile, trainingParameters)
			return err
		},
	}

	cmd.Flags().StringVarP(&trainFile, "train-file", "i", "", "name of train file")
	cmd.Flags().StringVarP(&devFile, "dev-file", "", "", "name of dev file, evaluated after every epoch")
	cmd.Flags().StringVarP(&testFile, "test-file", "", "", "name of test file, evaluated after training")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "name of the file to write test set predictions to")
	cmd.Flags().StringVarP(&trainingParameters.LossType, "loss", "L", decision.SparsemaxLoss, "loss function: softmax, sparsemax or logistic")
	cmd.Flags().IntVarP(&trainingParameters.NumEpochs, "num-epochs", "n", 20, "number of epochs to train")
	cmd.Flags().Float64VarP(&trainingParameters.LearningRate, "learning-rate", "l", 0.001, "base learning rate, decayed as 1/sqrt(t)")
	cmd.Flags().Float64VarP(&trainingParameters.Regularization, "regularization", "r", 0.0, "L2 regularization constant")
	cmd.Flags().Float64SliceVarP(&trainingParameters.Sweep, "sweep", "", nil, "thresholds or sparsemax scales to evaluate (default depends on the loss)")
	cmd.Flags().BoolVarP(&trainingParameters.Shuffle, "shuffle", "", false, "shuffle the training data at every epoch")
	cmd.Flags().Int64VarP(&trainingParameters.RndSeed, "random-seed", "x", 42, "random seed")
	cmd.Flags().BoolVarP(&trainingParameters.PrintAllLabels, "print-all-labels", "", false, "report precision, recall and F1 of every label")

	_ = cmd.MarkFlagRequired("train-file")

	return cmd
}

var logLevel string
var logFormat string

func main() {

	Main := &cobra.Command{Use: "multilabel", PersistentPreRunE: setupLogging, SilenceUsage: true, SilenceErrors: true}

	Main.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Logging level: info error or debug")
	Main.PersistentFlags().StringVarP(&logFormat, "log-format", "", "pretty", "Logging format: pretty or json")

	Main.AddCommand(TrainCommand())

	if err := Main.Execute(); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {

	switch logLevel {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		return errors.Errorf("invalid logging level %q specified", logLevel)
	}

	switch logFormat {
	case "pretty":
		setupPrettyLogging()
	case "json":
	default:
		return errors.Errorf("invalid log format %q specified", logFormat)
	}
	return nil
}

func setupPrettyLogging() {
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	writer.FormatFieldValue = func(i interface{}) string {
		switch v := i.(type) {
		case json.Number:
			val, _ := v.Float64()
			return fmt.Sprintf("%.3f", val)
		default:
			return fmt.Sprintf("%s", i)
		}

	}
	log.Logger = log.Output(writer)

}
