// Package common contains shared functionality for command handlers
package common

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"fjacquet/hbci-codec/internal/export"
	"fjacquet/hbci-codec/internal/fileutils"
	"fjacquet/hbci-codec/internal/logging"
	"fjacquet/hbci-codec/pkg/codecerror"
	"fjacquet/hbci-codec/pkg/syntax"
)

// ErrNoMessage is returned when no message type was selected.
var ErrNoMessage = errors.New("no message type given")

// MessageCodec is the part of the codec the commands drive.
type MessageCodec interface {
	Generate(version, message string, values map[string]string) (string, error)
	Parse(version, message, input string, checkSequence bool) (*syntax.Message, map[string]string, error)
}

// Request describes one command invocation. Empty Input and Output select
// Stdin and Stdout.
type Request struct {
	Version       string
	Message       string
	Input         string
	Output        string
	CheckSequence bool
	Stdin         io.Reader
	Stdout        io.Writer
}

// GenerateFile reads path/value pairs in the format of values and writes the
// generated wire message.
func GenerateFile(codec MessageCodec, values export.Codec, req Request, log logging.Logger) error {
	if req.Message == "" {
		return ErrNoMessage
	}
	log = log.WithFields(
		logging.F(logging.FieldOperation, "generate"),
		logging.F(logging.FieldMessage, req.Message),
		logging.F(logging.FieldSchemaVersion, req.Version))

	in, err := fileutils.OpenInput(req.Input, req.Stdin)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	pairs, err := values.Read(in)
	if err != nil {
		return fmt.Errorf("error reading values: %w", err)
	}
	log.Debug("Values read",
		logging.F(logging.FieldFormat, values.Format()),
		logging.F(logging.FieldCount, len(pairs)))

	msg, err := codec.Generate(req.Version, req.Message, pairs)
	if err != nil {
		logFailure(log, err)
		return fmt.Errorf("error generating message: %w", err)
	}

	if err := writeOutput(req, func(w io.Writer) error {
		_, err := io.WriteString(w, msg)
		return err
	}); err != nil {
		return err
	}
	log.Info("Message generated", logging.F(logging.FieldSize, len(msg)))
	return nil
}

// ParseFile reads a wire message and writes its path/value pairs in the
// format of values.
func ParseFile(codec MessageCodec, values export.Codec, req Request, log logging.Logger) error {
	if req.Message == "" {
		return ErrNoMessage
	}
	log = log.WithFields(
		logging.F(logging.FieldOperation, "parse"),
		logging.F(logging.FieldMessage, req.Message),
		logging.F(logging.FieldSchemaVersion, req.Version))

	in, err := fileutils.OpenInput(req.Input, req.Stdin)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	msg, err := fileutils.ReadWireMessage(in)
	if err != nil {
		return err
	}

	_, pairs, err := codec.Parse(req.Version, req.Message, msg, req.CheckSequence)
	if err != nil {
		logFailure(log, err)
		return fmt.Errorf("error parsing message: %w", err)
	}

	if err := writeOutput(req, func(w io.Writer) error {
		return values.Write(w, pairs)
	}); err != nil {
		return err
	}
	log.Info("Message parsed",
		logging.F(logging.FieldFormat, values.Format()),
		logging.F(logging.FieldCount, len(pairs)))
	return nil
}

func writeOutput(req Request, write func(io.Writer) error) error {
	out, err := fileutils.CreateOutput(req.Output, req.Stdout)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		_ = out.Close()
		return fmt.Errorf("error writing output: %w", err)
	}
	return out.Close()
}

// logFailure records where a codec error happened.
func logFailure(log logging.Logger, err error) {
	var ce *codecerror.Error
	if !errors.As(err, &ce) {
		log.WithError(err).Error("Codec failure")
		return
	}
	fields := []logging.Field{
		logging.F(logging.FieldPath, ce.Path),
		logging.F(logging.FieldKind, string(ce.Kind)),
	}
	if syntax.IsParseError(err) {
		fields = append(fields, logging.F(logging.FieldOffset, ce.Offset))
	}
	log.WithError(err).Error("Codec failure", fields...)
}

// FormatFromPath picks the path/value format from a file extension and falls
// back to fallback for stdin and unknown extensions.
func FormatFromPath(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".yaml", ".yml":
		return "yaml"
	}
	return fallback
}
