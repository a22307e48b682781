package vm

// operation describes how one opcode executes and how it is validated
// before dispatch.
type operation struct {
	execute executionFunc
	tier    GasTier
	// args is the number of stack items consumed, ret the number pushed.
	args int
	ret  int
}

// JumpTable maps every opcode to its operation. A nil entry is an invalid
// instruction.
type JumpTable [256]*operation

var (
	frontierInstructionSet  = newFrontierInstructionSet()
	homesteadInstructionSet = newHomesteadInstructionSet()
)

// jumpTableFor returns the instruction set enabled by schedule.
func jumpTableFor(schedule *Schedule) *JumpTable {
	if schedule.HaveDelegateCall {
		return &homesteadInstructionSet
	}
	return &frontierInstructionSet
}

func newHomesteadInstructionSet() JumpTable {
	tbl := newFrontierInstructionSet()
	tbl[DELEGATECALL] = &operation{execute: opDelegateCall, tier: SpecialTier, args: 6, ret: 1}
	return tbl
}

func newFrontierInstructionSet() JumpTable {
	tbl := JumpTable{
		STOP:       {execute: opStop, tier: ZeroTier},
		ADD:        {execute: opAdd, tier: VeryLowTier, args: 2, ret: 1},
		MUL:        {execute: opMul, tier: LowTier, args: 2, ret: 1},
		SUB:        {execute: opSub, tier: VeryLowTier, args: 2, ret: 1},
		DIV:        {execute: opDiv, tier: LowTier, args: 2, ret: 1},
		SDIV:       {execute: opSdiv, tier: LowTier, args: 2, ret: 1},
		MOD:        {execute: opMod, tier: LowTier, args: 2, ret: 1},
		SMOD:       {execute: opSmod, tier: LowTier, args: 2, ret: 1},
		ADDMOD:     {execute: opAddmod, tier: MidTier, args: 3, ret: 1},
		MULMOD:     {execute: opMulmod, tier: MidTier, args: 3, ret: 1},
		EXP:        {execute: opExp, tier: SpecialTier, args: 2, ret: 1},
		SIGNEXTEND: {execute: opSignExtend, tier: LowTier, args: 2, ret: 1},

		LT:     {execute: opLt, tier: VeryLowTier, args: 2, ret: 1},
		GT:     {execute: opGt, tier: VeryLowTier, args: 2, ret: 1},
		SLT:    {execute: opSlt, tier: VeryLowTier, args: 2, ret: 1},
		SGT:    {execute: opSgt, tier: VeryLowTier, args: 2, ret: 1},
		EQ:     {execute: opEq, tier: VeryLowTier, args: 2, ret: 1},
		ISZERO: {execute: opIszero, tier: VeryLowTier, args: 1, ret: 1},
		AND:    {execute: opAnd, tier: VeryLowTier, args: 2, ret: 1},
		OR:     {execute: opOr, tier: VeryLowTier, args: 2, ret: 1},
		XOR:    {execute: opXor, tier: VeryLowTier, args: 2, ret: 1},
		NOT:    {execute: opNot, tier: VeryLowTier, args: 1, ret: 1},
		BYTE:   {execute: opByte, tier: VeryLowTier, args: 2, ret: 1},

		SHA3: {execute: opSha3, tier: SpecialTier, args: 2, ret: 1},

		ADDRESS:      {execute: opAddress, tier: BaseTier, ret: 1},
		BALANCE:      {execute: opBalance, tier: SpecialTier, args: 1, ret: 1},
		ORIGIN:       {execute: opOrigin, tier: BaseTier, ret: 1},
		CALLER:       {execute: opCaller, tier: BaseTier, ret: 1},
		CALLVALUE:    {execute: opCallValue, tier: BaseTier, ret: 1},
		CALLDATALOAD: {execute: opCallDataLoad, tier: VeryLowTier, args: 1, ret: 1},
		CALLDATASIZE: {execute: opCallDataSize, tier: BaseTier, ret: 1},
		CALLDATACOPY: {execute: opCallDataCopy, tier: VeryLowTier, args: 3},
		CODESIZE:     {execute: opCodeSize, tier: BaseTier, ret: 1},
		CODECOPY:     {execute: opCodeCopy, tier: VeryLowTier, args: 3},
		GASPRICE:     {execute: opGasPrice, tier: BaseTier, ret: 1},
		EXTCODESIZE:  {execute: opExtCodeSize, tier: SpecialTier, args: 1, ret: 1},
		EXTCODECOPY:  {execute: opExtCodeCopy, tier: SpecialTier, args: 4},

		BLOCKHASH:  {execute: opBlockhash, tier: ExtTier, args: 1, ret: 1},
		COINBASE:   {execute: opCoinbase, tier: BaseTier, ret: 1},
		TIMESTAMP:  {execute: opTimestamp, tier: BaseTier, ret: 1},
		NUMBER:     {execute: opNumber, tier: BaseTier, ret: 1},
		DIFFICULTY: {execute: opDifficulty, tier: BaseTier, ret: 1},
		GASLIMIT:   {execute: opGasLimit, tier: BaseTier, ret: 1},

		POP:      {execute: opPop, tier: BaseTier, args: 1},
		MLOAD:    {execute: opMload, tier: VeryLowTier, args: 1, ret: 1},
		MSTORE:   {execute: opMstore, tier: VeryLowTier, args: 2},
		MSTORE8:  {execute: opMstore8, tier: VeryLowTier, args: 2},
		SLOAD:    {execute: opSload, tier: SpecialTier, args: 1, ret: 1},
		SSTORE:   {execute: opSstore, tier: SpecialTier, args: 2},
		JUMP:     {execute: opJump, tier: MidTier, args: 1},
		JUMPI:    {execute: opJumpi, tier: HighTier, args: 2},
		PC:       {execute: opPc, tier: BaseTier, ret: 1},
		MSIZE:    {execute: opMsize, tier: BaseTier, ret: 1},
		GAS:      {execute: opGas, tier: BaseTier, ret: 1},
		JUMPDEST: {execute: opJumpdest, tier: SpecialTier},

		CREATE:   {execute: opCreate, tier: SpecialTier, args: 3, ret: 1},
		CALL:     {execute: opCall, tier: SpecialTier, args: 7, ret: 1},
		CALLCODE: {execute: opCallCode, tier: SpecialTier, args: 7, ret: 1},
		RETURN:   {execute: opReturn, tier: ZeroTier, args: 2},
		SUICIDE:  {execute: opSuicide, tier: SpecialTier, args: 1},
	}
	for i := 0; i < 32; i++ {
		tbl[PUSH1+OpCode(i)] = &operation{execute: makePush(i + 1), tier: VeryLowTier, ret: 1}
	}
	for i := 0; i < 16; i++ {
		tbl[DUP1+OpCode(i)] = &operation{execute: makeDup(i + 1), tier: VeryLowTier, args: i + 1, ret: i + 2}
		tbl[SWAP1+OpCode(i)] = &operation{execute: makeSwap(i + 1), tier: VeryLowTier, args: i + 2, ret: i + 2}
	}
	for i := 0; i <= 4; i++ {
		tbl[LOG0+OpCode(i)] = &operation{execute: makeLog(i), tier: SpecialTier, args: i + 2}
	}
	return tbl
}
