package metadata

import "fmt"

type TokenType uint32

const (
	TokenModule          TokenType = 0x00000000
	TokenTypeRef         TokenType = 0x01000000
	TokenTypeDef         TokenType = 0x02000000
	TokenField           TokenType = 0x04000000
	TokenMethod          TokenType = 0x06000000
	TokenParam           TokenType = 0x08000000
	TokenCustomAttribute TokenType = 0x0c000000
)

// MetadataToken is the table byte in the high 8 bits and the row id in the low 24.
type MetadataToken uint32

func NewMetadataToken(tokenType TokenType, rid uint32) MetadataToken {
	return MetadataToken(uint32(tokenType) | rid&0x00ffffff)
}

func (this MetadataToken) RID() uint32 {
	return uint32(this) & 0x00ffffff
}

func (this MetadataToken) TokenType() TokenType {
	return TokenType(uint32(this) & 0xff000000)
}

func (this MetadataToken) IsZero() bool {
	return this.RID() == 0
}

func (this MetadataToken) String() string {
	return fmt.Sprintf("0x%08x", uint32(this))
}
