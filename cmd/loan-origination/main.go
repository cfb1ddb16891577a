package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/loan-origination/internal/config"
	"github.com/iwvelando/loan-origination/internal/logging"
	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/idnumber"
	"github.com/iwvelando/loan-origination/pkg/loans"
	"github.com/iwvelando/loan-origination/pkg/output"
	"github.com/iwvelando/loan-origination/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	idNumber := flag.String("id", "", "ID number to validate")
	principal := flag.Float64("principal", 0, "loan amount to quote")
	term := flag.Int("term", 0, "loan term in months")
	rate := flag.Float64("rate", -1, "annual interest rate override in percent")
	schedule := flag.Bool("schedule", false, "include the monthly repayment schedule")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, yaml")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *idNumber == "" && *principal == 0 {
		logger.Fatal("nothing to do: pass -id and/or -principal with -term",
			zap.String("op", "main"),
		)
	}

	var report output.Report

	if *idNumber != "" {
		validator := idnumber.New()
		validator.CenturyPivot = conf.Lending.CenturyPivot
		result := validator.Validate(*idNumber)
		report.IDNumber = *idNumber
		report.ID = &result
		logger.Debug("ID number validated",
			zap.String("op", "main"),
			zap.String("idNumber", idnumber.Mask(*idNumber)),
			zap.Bool("valid", result.Valid),
		)
	}

	if *principal != 0 {
		annualRate := conf.Lending.AnnualInterestRate
		if *rate >= 0 {
			annualRate = *rate
		}

		quote, err := loans.NewQuote(*principal, *term, annualRate, conf.Limits())
		if err != nil {
			logger.Fatal("failed to compute quote",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		report.Quote = &quote

		if *schedule {
			report.Schedule = loans.NewScheduleGenerator(logger).GenerateSchedule(quote)
		}
	}

	if err := output.Write(os.Stdout, outputFormat, report); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if report.ID != nil && !report.ID.Valid {
		_ = logger.Sync()
		os.Exit(2)
	}
}
