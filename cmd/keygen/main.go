package main

import (
	"flag"
	"fmt"
	"log"

	"escrow-chain.backend/pkg/crypto"
)

func main() {
	contractID := flag.String("contract", "", "contract ID to sign (requires -party and -key)")
	partyID := flag.String("party", "", "party ID to sign as")
	privateKey := flag.String("key", "", "hex-encoded private key to sign with")
	flag.Parse()

	if *contractID != "" || *partyID != "" || *privateKey != "" {
		if *contractID == "" || *partyID == "" || *privateKey == "" {
			log.Fatal("signing requires -contract, -party and -key together")
		}
		digest := crypto.SigningDigest(*contractID, *partyID)
		signature, err := crypto.Sign(*privateKey, digest)
		if err != nil {
			log.Fatalf("failed to sign: %v", err)
		}
		fmt.Printf("SIGNATURE=%s\n", signature)
		return
	}

	pair, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatalf("failed to generate keypair: %v", err)
	}

	fmt.Println("Generated party keypair")
	fmt.Printf("PRIVATE_KEY=%s\n", pair.PrivateKey)
	fmt.Printf("PUBLIC_KEY=%s\n", pair.PublicKey)
}
