package main

import (
	"errors"

	goArgon2 "github.com/MrEthical07/goArgon2"
)

var errMismatch = errors.New("password does not match")

type hashCommand struct {
	Password         string `long:"password" env:"ARGON2POW_PASSWORD" required:"true" description:"Password to hash"`
	Salt             string `long:"salt" description:"Salt; a random one is generated when empty"`
	Mode             string `long:"mode" default:"argon2id" choice:"argon2id" choice:"argon2i" description:"Argon2 variant"`
	Time             uint32 `long:"time" default:"2" description:"Iterations"`
	Memory           uint32 `long:"memory" default:"65536" description:"Memory in KiB"`
	Parallelism      uint32 `long:"parallelism" default:"1" description:"Lanes"`
	Length           uint32 `long:"length" default:"32" description:"Digest length in bytes"`
	PasswordEncoding string `long:"password-encoding" default:"utf8" choice:"utf8" choice:"hex" choice:"base64" description:"Encoding of --password"`
	SaltEncoding     string `long:"salt-encoding" default:"utf8" choice:"utf8" choice:"hex" choice:"base64" description:"Encoding of --salt"`

	env *cliEnv
}

func (c *hashCommand) Execute([]string) error {
	engine, err := c.env.build(goArgon2.DefaultConfig(), nil)
	if err != nil {
		return err
	}
	defer engine.Close()

	res, err := engine.Hash(c.env.ctx, goArgon2.HashOptions{
		Password:         c.Password,
		Salt:             c.Salt,
		Iterations:       c.Time,
		Memory:           c.Memory,
		Parallelism:      c.Parallelism,
		HashLength:       c.Length,
		Mode:             goArgon2.Mode(c.Mode),
		PasswordEncoding: goArgon2.Encoding(c.PasswordEncoding),
		SaltEncoding:     goArgon2.Encoding(c.SaltEncoding),
	})
	if err != nil {
		return err
	}
	return c.env.printJSON(res)
}

type verifyCommand struct {
	Password string `long:"password" env:"ARGON2POW_PASSWORD" required:"true" description:"Password to check"`
	Hash     string `long:"hash" required:"true" description:"PHC encoded Argon2 hash"`

	env *cliEnv
}

type verifyOutput struct {
	Match       bool `json:"match"`
	NeedsRehash bool `json:"needs_rehash"`
}

func (c *verifyCommand) Execute([]string) error {
	engine, err := c.env.build(goArgon2.DefaultConfig(), nil)
	if err != nil {
		return err
	}
	defer engine.Close()

	ok, err := engine.Verify(c.env.ctx, c.Password, c.Hash)
	if err != nil {
		return err
	}
	rehash, err := engine.NeedsRehash(c.Hash)
	if err != nil {
		return err
	}

	if err := c.env.printJSON(verifyOutput{Match: ok, NeedsRehash: rehash}); err != nil {
		return err
	}
	if !ok {
		return errMismatch
	}
	return nil
}
