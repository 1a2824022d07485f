package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/paylinkhq/server/internal/config"
	"github.com/paylinkhq/server/internal/httputil"
	"github.com/paylinkhq/server/internal/payment"
	"github.com/paylinkhq/server/pkg/solanapay/solanapaytest"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "path to Paylink config file (used for the RPC endpoint)")
		serverURL = flag.String("server", "http://localhost:8080", "Paylink server base URL")
		action    = flag.String("action", "", "action path with query, e.g. /api/actions/pay?to=...&amount=1")
		keypair   = flag.String("keypair", "", "path to Solana keypair (JSON produced by solana-keygen)")
		send      = flag.Bool("send", false, "sign and submit the returned transaction")
	)
	flag.Parse()

	if *action == "" {
		log.Fatal("action flag is required")
	}
	if *keypair == "" {
		log.Fatal("keypair flag is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	payerKey, err := solana.PrivateKeyFromSolanaKeygenFile(*keypair)
	if err != nil {
		log.Fatalf("load keypair: %v", err)
	}
	payerPub := payerKey.PublicKey()

	actionURL := strings.TrimRight(*serverURL, "/") + *action
	httpClient := httputil.NewClient(15 * time.Second)

	meta, err := fetchMetadata(httpClient, actionURL)
	if err != nil {
		log.Fatalf("fetch metadata: %v", err)
	}
	log.Printf("Action: %s (%s)", meta.Title, meta.Label)
	for _, a := range meta.Links.Actions {
		log.Printf("  link %q -> %s", a.Label, a.Href)
	}

	built, err := buildTransaction(httpClient, actionURL, payerPub)
	if err != nil {
		log.Fatalf("build transaction: %v", err)
	}
	log.Printf("Message: %s", built.Message)

	decoded, err := solanapaytest.Decode(built.Transaction)
	if err != nil {
		log.Fatalf("decode transaction: %v", err)
	}
	if !decoded.FeePayer.Equals(payerPub) {
		log.Fatalf("fee payer %s is not the keypair %s", decoded.FeePayer, payerPub)
	}
	log.Printf("Blockhash: %s", decoded.Blockhash)
	for _, ix := range decoded.Tx.Message.Instructions {
		program, _ := decoded.Tx.Message.Program(ix.ProgramIDIndex)
		log.Printf("  instruction program=%s accounts=%d", program, len(ix.Accounts))
	}

	tx := decoded.Tx
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payerPub) {
			return &payerKey
		}
		return nil
	}); err != nil {
		log.Fatalf("sign transaction: %v", err)
	}
	log.Printf("Signature: %s", tx.Signatures[0])

	if !*send {
		fmt.Println("Transaction signed; pass -send to submit it.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := rpc.New(cfg.Solana.RPCURL)
	sig, err := client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentType(cfg.Solana.Commitment),
	})
	if err != nil {
		log.Fatalf("send transaction: %v", err)
	}
	fmt.Printf("✓ Submitted %s on %s\n", sig, cfg.Solana.Cluster)
}

func fetchMetadata(client *http.Client, actionURL string) (*payment.Metadata, error) {
	resp, err := client.Get(actionURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var meta payment.Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func buildTransaction(client *http.Client, actionURL string, payer solana.PublicKey) (*payment.BuildResult, error) {
	body, err := json.Marshal(map[string]string{"account": payer.String()})
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(actionURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result payment.BuildResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(raw)))
}
