package main

import (
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func bind(v *viper.Viper, flag *pflag.Flag, key string) {
	if err := v.BindPFlag(key, flag); err != nil {
		log.Panic(err)
	}
}
