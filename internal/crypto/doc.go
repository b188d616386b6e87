/*
Package crypto implements coldb's page cryptor: per-4096-byte-block
AES-256-CBC encryption authenticated with HMAC-SHA-224, with a crash-safe
two-generation IV/HMAC table so a torn write (metadata persisted but not
ciphertext, or vice versa) can always be rolled back to the previous,
intact, generation instead of losing the page.

# On-disk layout

The physical file is interleaved: one 4096-byte metadata block followed by
BlocksPerMetadataBlock 4096-byte data blocks, repeating:

	[metadata][data]x{BlocksPerMetadataBlock}[metadata][data]x{...}...

Each metadata block holds one IVTable per data block it covers. Two
offset translations connect the logical (decrypted, "fake") data stream
that the allocator/table layer sees to the physical file:

	RealOffset(p) = p + (index/M + 1) * BlockSize
	IVPos(p)      = (index/M) * (M+1) * BlockSize + (index % M) * IVTableSize

where index = p / BlockSize and M = BlocksPerMetadataBlock.

# Write protocol (one block)

 1. Load the block's current ivTable.
 2. Roll (iv1, hmac1) into (iv2, hmac2); increment iv1 (skip 0).
 3. Encrypt with AES-256-CBC, IV = iv1 (4B) || pos (8B) || zero padding.
 4. HMAC-SHA-224 the ciphertext into hmac1, with the caller's HMAC key.
 5. If hmac1's low 32 bits collide with hmac2's, go back to step 2.
 6. Write the ivTable, then the ciphertext.

# Read protocol (one block)

Read ciphertext and ivTable. iv1 == 0 means never written (not an error).
HMAC the ciphertext: a match against hmac1 uses iv1; a match against
hmac2 (with iv2 != 0) means the previous write tore between the ivTable
and the ciphertext — roll back to the iv2/hmac2 generation and decrypt
with iv2. An all-zero ciphertext with neither HMAC matching is treated as
unallocated (a truncated-then-re-extended file). Anything else is a
DecryptionFailed error. HMAC comparisons are constant-time.
*/
package crypto
