package codec

// Stage 表示编解码管线中的处理阶段。
//
// 主要用于在错误与指标中标记失败发生的位置，便于监控与排查。
type Stage string

const (
	StageSeal        Stage = "seal"        // 领域值 -> 替身载体
	StageSerialize   Stage = "serialize"   // 替身载体 -> 载荷字节
	StageCompress    Stage = "compress"    // 载荷压缩
	StageEncrypt     Stage = "encrypt"     // 载荷加密
	StageFrame       Stage = "frame"       // 信封打包/解包
	StageGate        Stage = "gate"        // 解码侧标签/版本门禁
	StageDecrypt     Stage = "decrypt"     // 载荷解密
	StageDecompress  Stage = "decompress"  // 载荷解压
	StageDeserialize Stage = "deserialize" // 载荷字节 -> 替身载体
	StageRestore     Stage = "restore"     // 替身载体 -> 领域值
)
