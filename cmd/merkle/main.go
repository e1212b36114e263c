package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/OpenZeppelin/merkle-tree/pkg/abiencode"
	"github.com/OpenZeppelin/merkle-tree/pkg/logger"
	"github.com/OpenZeppelin/merkle-tree/pkg/merkletree"
)

// loadedTree is the method set shared by both tree variants that the CLI
// commands operate on.
type loadedTree interface {
	Root() common.Hash
	GetProof(i int) ([]common.Hash, error)
	Verify(i int, proof []common.Hash) (bool, error)
	Render() (string, error)
	Validate() error
}

func main() {
	app := &cli.App{
		Name:  "merkle",
		Usage: "Build and verify Ethereum-compatible Merkle trees",
		Description: `Builds standard (ABI-encoded, double-keccak leaves) and simple
(bytes32 leaves) Merkle trees whose proofs verify against the MerkleProof
library deployed in Ethereum smart contracts.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{"MERKLE_VERBOSE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Build a tree from a JSON values file and print its dump",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "format",
						Usage:    "Tree variant: standard or simple",
						Value:    "standard",
						Required: false,
					},
					&cli.StringFlag{
						Name:  "encoding",
						Usage: "Comma-separated ABI types for standard leaves, e.g. address,uint256",
					},
					&cli.StringFlag{
						Name:     "values",
						Usage:    "Path to the JSON values file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "unsorted",
						Usage: "Keep leaves in input order instead of sorting by digest",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write the dump to this path instead of stdout",
					},
				},
				Action: runBuild,
			},
			{
				Name:   "root",
				Usage:  "Print the root of a dumped tree",
				Flags:  []cli.Flag{dumpFlag()},
				Action: runRoot,
			},
			{
				Name:  "proof",
				Usage: "Print the proof for one leaf of a dumped tree",
				Flags: []cli.Flag{
					dumpFlag(),
					&cli.IntFlag{
						Name:     "index",
						Usage:    "Input index of the leaf to prove",
						Required: true,
					},
				},
				Action: runProof,
			},
			{
				Name:  "verify",
				Usage: "Verify a proof against a dumped tree",
				Flags: []cli.Flag{
					dumpFlag(),
					&cli.IntFlag{
						Name:     "index",
						Usage:    "Input index of the proven leaf",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "proof",
						Usage:    "Comma-separated sibling digests",
						Required: true,
					},
				},
				Action: runVerify,
			},
			{
				Name:   "render",
				Usage:  "Draw a dumped tree as ASCII",
				Flags:  []cli.Flag{dumpFlag()},
				Action: runRender,
			},
			{
				Name:   "validate",
				Usage:  "Re-validate a dumped tree",
				Flags:  []cli.Flag{dumpFlag()},
				Action: runValidate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func dumpFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "dump",
		Usage:    "Path to a tree dump produced by build",
		Required: true,
	}
}

func runBuild(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	raw, err := os.ReadFile(c.String("values"))
	if err != nil {
		return fmt.Errorf("failed to read values file: %w", err)
	}

	var opts []merkletree.Option
	if c.Bool("unsorted") {
		opts = append(opts, merkletree.WithSortLeaves(false))
	}

	var dump *merkletree.Dump
	switch c.String("format") {
	case "standard":
		encoding := splitEncoding(c.String("encoding"))
		if len(encoding) == 0 {
			return fmt.Errorf("standard trees require --encoding")
		}
		values, err := parseStandardValues(encoding, raw)
		if err != nil {
			return err
		}
		tree, err := merkletree.NewStandardTree(values, encoding, opts...)
		if err != nil {
			return err
		}
		if dump, err = tree.Dump(); err != nil {
			return err
		}
		l.Sugar().Infow("Built standard tree", "leaves", tree.Len(), "root", tree.Root().Hex())
	case "simple":
		var leaves []common.Hash
		if err := json.Unmarshal(raw, &leaves); err != nil {
			return fmt.Errorf("failed to parse simple leaves: %w", err)
		}
		tree, err := merkletree.NewSimpleTree(leaves, opts...)
		if err != nil {
			return err
		}
		if dump, err = tree.Dump(); err != nil {
			return err
		}
		l.Sugar().Infow("Built simple tree", "leaves", tree.Len(), "root", tree.Root().Hex())
	default:
		return fmt.Errorf("unknown format %q", c.String("format"))
	}

	out, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dump: %w", err)
	}
	if path := c.String("out"); path != "" {
		return os.WriteFile(path, append(out, '\n'), 0o644)
	}
	fmt.Println(string(out))
	return nil
}

func runRoot(c *cli.Context) error {
	tree, err := loadTree(c.String("dump"))
	if err != nil {
		return err
	}
	fmt.Println(tree.Root().Hex())
	return nil
}

func runProof(c *cli.Context) error {
	tree, err := loadTree(c.String("dump"))
	if err != nil {
		return err
	}
	proof, err := tree.GetProof(c.Int("index"))
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runVerify(c *cli.Context) error {
	tree, err := loadTree(c.String("dump"))
	if err != nil {
		return err
	}
	var proof []common.Hash
	for _, part := range strings.Split(c.String("proof"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var h common.Hash
		if err := h.UnmarshalText([]byte(part)); err != nil {
			return fmt.Errorf("invalid proof digest %q: %w", part, err)
		}
		proof = append(proof, h)
	}
	ok, err := tree.Verify(c.Int("index"), proof)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	if !ok {
		return cli.Exit("proof is invalid", 1)
	}
	return nil
}

func runRender(c *cli.Context) error {
	tree, err := loadTree(c.String("dump"))
	if err != nil {
		return err
	}
	rendered, err := tree.Render()
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

func runValidate(c *cli.Context) error {
	tree, err := loadTree(c.String("dump"))
	if err != nil {
		return err
	}
	if err := tree.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("tree is invalid: %v", err), 1)
	}
	fmt.Println("ok")
	return nil
}

func loadTree(path string) (loadedTree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	var dump merkletree.Dump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse dump: %w", err)
	}

	switch dump.Format {
	case merkletree.StandardFormat:
		return merkletree.LoadStandard(&dump)
	case merkletree.SimpleFormat:
		if dump.Hash == merkletree.CustomHashTag {
			return nil, fmt.Errorf("dumps built with a custom node hash cannot be loaded from the command line")
		}
		return merkletree.LoadSimple(&dump)
	}
	return nil, fmt.Errorf("unknown format %q", dump.Format)
}

func splitEncoding(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseStandardValues(encoding []string, raw []byte) ([][]any, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse values file: %w", err)
	}
	values := make([][]any, len(rows))
	for i, row := range rows {
		v, err := abiencode.FromJSON(encoding, row)
		if err != nil {
			return nil, fmt.Errorf("invalid value at row %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}
