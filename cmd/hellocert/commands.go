package main

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellocert/internal/certificate"
	"github.com/dropDatabas3/hellocert/internal/signature"
	"github.com/dropDatabas3/hellocert/internal/util/atomicwrite"
)

func newIssueCmd(cl *client) *cobra.Command {
	var identity, title string
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Emite el certificado para esta máquina (POST /creation)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if identity == "" || title == "" {
				return fmt.Errorf("--identity y --title son requeridos")
			}
			status, body, err := cl.issue(identity, title)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return statusErr("issue", status, body)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "Nombre y apellido")
	cmd.Flags().StringVar(&title, "title", "", "Intitulado de la certificación")
	return cmd
}

func newFetchCmd(cl *client) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Descarga el último certificado emitido (GET /fond)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.fetch()
			if err != nil {
				return err
			}
			if status != 200 {
				return statusErr("fetch", status, body)
			}
			if err := atomicwrite.WriteFile(output, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "guardado %s (%d bytes)\n", output, len(body))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "certificate.png", "Archivo destino")
	return cmd
}

// errRejected hace que verify salga con código != 0 ante un certificado inválido.
var errRejected = errors.New("certificado rechazado")

func newVerifyCmd(cl *client) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <certificate.png>",
		Short: "Sube una imagen para verificar (POST /verification)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			status, body, err := cl.verify(filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return statusErr("verify", status, body)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(body))
			if strings.TrimSpace(string(body)) != "Certified!" {
				return errRejected
			}
			return nil
		},
	}
}

func newKeysCmd() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manejo de la clave de firma",
	}

	var privPath, pubPath string
	var force bool
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Genera un par P-256 (PEM) para firmar certificados",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(privPath); err == nil {
					return fmt.Errorf("%s ya existe (usar --force para reemplazar)", privPath)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			if _, err := signature.GenerateKeyPair(privPath, pubPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "clave privada: %s\nclave pública: %s\n", privPath, pubPath)
			return nil
		},
	}
	gen.Flags().StringVar(&privPath, "private", "keys/signing.pem", "Destino de la clave privada (0600)")
	gen.Flags().StringVar(&pubPath, "public", "keys/signing.pub.pem", "Destino de la clave pública")
	gen.Flags().BoolVar(&force, "force", false, "Sobrescribir si existe")

	keys.AddCommand(gen)
	return keys
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <certificate.png>",
		Short: "Muestra payload oculto, sello y QR de una imagen (sin verificar)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			printInspection(cmd, certificate.Inspect(img))
			return nil
		},
	}
}

func printInspection(cmd *cobra.Command, in certificate.Inspection) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "capacity:   %d chars\n", in.Capacity)
	if in.PayloadErr != nil {
		fmt.Fprintf(out, "payload:    error: %v\n", in.PayloadErr)
	} else {
		fmt.Fprintf(out, "payload:    %d chars\n", in.PayloadChars)
		fmt.Fprintf(out, "info:       %q\n", in.Block.Info())
		fmt.Fprintf(out, "token:      %d bytes\n", in.TokenBytes)
	}
	switch {
	case in.TimestampErr != nil:
		fmt.Fprintf(out, "timestamp:  error: %v\n", in.TimestampErr)
	case in.Timestamp != nil:
		fmt.Fprintf(out, "timestamp:  %s serial=%s (no verificado)\n", in.Timestamp.Time.UTC().Format("2006-01-02T15:04:05Z"), in.Timestamp.Serial)
	}
	if in.QRErr != nil {
		fmt.Fprintf(out, "qr:         error: %v\n", in.QRErr)
	} else {
		fmt.Fprintf(out, "qr:         %s\n", in.QRText)
	}
}
